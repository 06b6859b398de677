package services

import (
	"fmt"
	"strings"
	"time"
)

// IncompleteError blocks report generation while required tests are missing.
// It is actionable guidance, not a failure: the missing test names are listed
// so the UI can tell the user exactly what remains.
type IncompleteError struct {
	CompletedTests []string
	MissingTests   []string
	TotalTests     int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("cannot generate comprehensive report: %d of %d tests still missing: %s",
		len(e.MissingTests), e.TotalTests, strings.Join(e.MissingTests, ", "))
}

// GenerationError is a terminal failure reported by the AI worker. The backend
// message is surfaced verbatim; the client never retries on its own.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("report generation failed: %s", e.Message)
}

// TimeoutError means the poll loop gave up before the task reached a terminal
// state. Distinct from GenerationError: the report may still complete
// server-side, so the UI offers "view test history" instead of a bare retry.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("report generation timed out after %s; the report may still finish in the background, check your test history", e.Elapsed.Round(time.Second))
}
