package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"careercompass/models"
)

func TestMergeAndOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Insights items come first even when older than every result", func(t *testing.T) {
		results := []models.TestResult{
			{ID: "r1", TestName: "MBTI", CompletedAt: base.Add(48 * time.Hour)},
			{ID: "r2", TestName: "Big Five", CompletedAt: base.Add(24 * time.Hour)},
		}
		insights := []models.AIInsightsHistoryItem{
			{ID: "ai1", Title: "Comprehensive Report", GeneratedAt: base}, // Oldest of the three
		}

		merged := MergeAndOrder(results, insights)

		assert.Len(t, merged, 3)
		assert.Equal(t, models.ResultItemInsights, merged[0].Kind)
		assert.Equal(t, "ai1", merged[0].ID)
		assert.Equal(t, "r1", merged[1].ID)
		assert.Equal(t, "r2", merged[2].ID)
	})

	t.Run("Raw results are ordered by completion date descending", func(t *testing.T) {
		results := []models.TestResult{
			{ID: "old", TestName: "VARK", CompletedAt: base},
			{ID: "new", TestName: "RIASEC", CompletedAt: base.Add(time.Hour)},
		}

		merged := MergeAndOrder(results, nil)

		assert.Equal(t, "new", merged[0].ID)
		assert.Equal(t, "old", merged[1].ID)
	})

	t.Run("Multiple insights items order among themselves by date descending", func(t *testing.T) {
		insights := []models.AIInsightsHistoryItem{
			{ID: "ai-old", GeneratedAt: base},
			{ID: "ai-new", GeneratedAt: base.Add(time.Hour)},
		}

		merged := MergeAndOrder(nil, insights)

		assert.Equal(t, "ai-new", merged[0].ID)
		assert.Equal(t, "ai-old", merged[1].ID)
		assert.Equal(t, "Comprehensive Career Report", merged[0].Title, "untitled reports get a display title")
	})

	t.Run("Empty inputs yield an empty, non-nil list", func(t *testing.T) {
		merged := MergeAndOrder(nil, nil)
		assert.NotNil(t, merged)
		assert.Empty(t, merged)
	})
}
