package models

import (
	"encoding/json"
	"time"
)

// TaskStatus is the lifecycle state of an AI report-generation task on the worker.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

// IsTerminal reports whether the task has reached a final state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// TaskProgress carries the worker's self-reported progress for a running task.
type TaskProgress struct {
	Progress int    `json:"progress"`        // 0-100
	Stage    string `json:"stage,omitempty"` // Human-readable stage name, e.g. "analyzing results"
}

// AIInsightsTask is the poll-side view of one report generation attempt.
// The task id is issued by the generate endpoint and discarded once terminal.
type AIInsightsTask struct {
	TaskID   string          `json:"task_id"`
	Status   TaskStatus      `json:"status"`
	Progress TaskProgress    `json:"progress"`
	Result   *GenerateResult `json:"result,omitempty"` // Populated once Status is terminal
}

// GenerateResult is the terminal payload of a generation task: either a
// comprehensive insights object or a failure message surfaced verbatim.
type GenerateResult struct {
	Success  bool            `json:"success"`
	Insights json.RawMessage `json:"insights,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// GenerateResponse is what the generate endpoint returns on submission:
// either an immediate result (a report already exists for this completed set,
// redirect to history) or a task id to poll.
type GenerateResponse struct {
	Success           bool            `json:"success"`
	TaskID            string          `json:"task_id,omitempty"`
	Insights          json.RawMessage `json:"insights,omitempty"`
	RedirectToHistory bool            `json:"redirect_to_history,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// AIInsightsHistoryItem is a persisted, previously generated comprehensive
// report. Distinct from TestResult but displayed interleaved with them.
type AIInsightsHistoryItem struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Summary     string          `json:"summary,omitempty"`
	Insights    json.RawMessage `json:"insights"`
	TestsUsed   []string        `json:"tests_used,omitempty"` // Test ids the report was built from
	GeneratedAt time.Time       `json:"generated_at"`
}

// GenerateReportOutcome is what the in-process task client resolves to.
type GenerateReportOutcome struct {
	Insights          json.RawMessage `json:"insights,omitempty"`
	RedirectToHistory bool            `json:"redirect_to_history"`
}
