package models

import (
	"time"
)

// TestScores holds the computed scores for a completed test.
type TestScores struct {
	Total      float64            `json:"total"`
	Percentage float64            `json:"percentage"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"` // Per-dimension scores (e.g. {"E": 12, "I": 8})
}

// TestResult is one scored submission of a test by a user.
// Results are immutable once stored; a re-take creates a new row on the backend.
type TestResult struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	TestID      string            `json:"test_id"`
	TestName    string            `json:"test_name"`
	Answers     map[string]string `json:"answers"` // question id -> raw answer
	Scores      TestScores        `json:"scores"`
	Analysis    string            `json:"analysis,omitempty"` // Free-text interpretation from the results service
	CompletedAt time.Time         `json:"completed_at"`
}

// SubmitAnswersRequest is the payload for submitting a finished test.
type SubmitAnswersRequest struct {
	TestID  string            `json:"test_id" binding:"required"`
	Answers map[string]string `json:"answers" binding:"required"`
}

// CompletionStatus reports which of the required tests a user has completed.
// It is recomputed by the results service and only cached client-side.
type CompletionStatus struct {
	UserID               string   `json:"user_id"`
	AllCompleted         bool     `json:"all_completed"`
	CompletedTests       []string `json:"completed_tests"`
	MissingTests         []string `json:"missing_tests"`
	TotalTests           int      `json:"total_tests"`
	CompletionPercentage float64  `json:"completion_percentage"`
}

// ResultItemKind distinguishes entries in a merged result listing.
type ResultItemKind string

const (
	ResultItemTest     ResultItemKind = "test_result"
	ResultItemInsights ResultItemKind = "ai_insights"
)

// ResultListItem is one entry in the merged listing of raw test results and
// generated comprehensive reports. Insights entries always sort first.
type ResultListItem struct {
	Kind        ResultItemKind         `json:"kind"`
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	CompletedAt time.Time              `json:"completed_at"`
	TestResult  *TestResult            `json:"test_result,omitempty"`
	Insights    *AIInsightsHistoryItem `json:"insights,omitempty"`
}
