package services

import (
	"sort"

	"careercompass/models"
)

// MergeAndOrder merges raw test results with generated comprehensive reports
// into one listing. Insights items always come first (the comprehensive
// report is the most valuable artifact and must be discoverable without
// scrolling) regardless of their dates; within each group items are ordered
// by completion date descending.
func MergeAndOrder(results []models.TestResult, insights []models.AIInsightsHistoryItem) []models.ResultListItem {
	merged := make([]models.ResultListItem, 0, len(results)+len(insights))

	for i := range insights {
		item := insights[i]
		title := item.Title
		if title == "" {
			title = "Comprehensive Career Report"
		}
		merged = append(merged, models.ResultListItem{
			Kind:        models.ResultItemInsights,
			ID:          item.ID,
			Title:       title,
			CompletedAt: item.GeneratedAt,
			Insights:    &insights[i],
		})
	}
	for i := range results {
		r := results[i]
		merged = append(merged, models.ResultListItem{
			Kind:        models.ResultItemTest,
			ID:          r.ID,
			Title:       r.TestName,
			CompletedAt: r.CompletedAt,
			TestResult:  &results[i],
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Kind != merged[j].Kind {
			return merged[i].Kind == models.ResultItemInsights
		}
		return merged[i].CompletedAt.After(merged[j].CompletedAt)
	})
	return merged
}
