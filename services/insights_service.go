package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"careercompass/cache"
	"careercompass/clients"
	"careercompass/models"
)

// ProgressFunc receives poll-loop progress: a human-readable stage and a
// 0-100 percentage. The reported percentage never decreases.
type ProgressFunc func(stage string, percent int)

// InsightsService owns the comprehensive-report flow: history retrieval and
// the asynchronous generation protocol against the results service and its
// AI task worker.
type InsightsService interface {
	History(ctx context.Context, userID string) ([]models.AIInsightsHistoryItem, error)
	// GenerateReport runs one generation attempt end to end:
	// completion gating, best-effort worker wake, submission, then polling
	// until a terminal state. Failure modes are typed: *IncompleteError when
	// required tests are missing, *GenerationError on a terminal worker
	// failure, *TimeoutError when the overall deadline elapses. Cancelling
	// ctx stops the poll loop; no further polls or callbacks happen after.
	GenerateReport(ctx context.Context, userID string, onProgress ProgressFunc) (*models.GenerateReportOutcome, error)
	InvalidateUser(userID string)
}

// InsightsOptions tunes the generation protocol. Zero values fall back to the
// documented defaults (1.5s interval, 5m deadline, 3s wake timeout).
type InsightsOptions struct {
	WakeURL           string
	WakeTimeout       time.Duration
	PollInterval      time.Duration
	PollDeadline      time.Duration
	HistoryTTL        time.Duration
	OnReportGenerated func(userID string) // Invalidates user-scoped caches elsewhere; may be nil
}

type insightsService struct {
	rest       *clients.REST
	completion CompletionService
	results    ResultsService
	history    *cache.TTLCache
	opts       InsightsOptions
	wakeClient *http.Client
	now        func() time.Time
}

// NewInsightsService creates the report-generation service.
func NewInsightsService(rest *clients.REST, completion CompletionService, results ResultsService, opts InsightsOptions) InsightsService {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 1500 * time.Millisecond
	}
	if opts.PollDeadline <= 0 {
		opts.PollDeadline = 5 * time.Minute
	}
	if opts.WakeTimeout <= 0 {
		opts.WakeTimeout = 3 * time.Second
	}
	return &insightsService{
		rest:       rest,
		completion: completion,
		results:    results,
		history:    cache.New("InsightsHistoryCache", opts.HistoryTTL),
		opts:       opts,
		wakeClient: &http.Client{Timeout: opts.WakeTimeout},
		now:        time.Now,
	}
}

func (s *insightsService) History(ctx context.Context, userID string) ([]models.AIInsightsHistoryItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	v, err := s.history.Get(ctx, userID, func(ctx context.Context) (interface{}, error) {
		var items []models.AIInsightsHistoryItem
		path := fmt.Sprintf("/api/v1/results_service/ai-insights/%s/history", userID)
		if err := s.rest.GetJSON(ctx, path, &items); err != nil {
			log.Printf("ERROR: [InsightsService] Failed to fetch insights history for userID %s: %v", userID, err)
			return nil, fmt.Errorf("fetch insights history for user %s: %w", userID, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.AIInsightsHistoryItem), nil
}

func (s *insightsService) InvalidateUser(userID string) {
	s.history.Invalidate(userID)
}

func (s *insightsService) GenerateReport(ctx context.Context, userID string, onProgress ProgressFunc) (*models.GenerateReportOutcome, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	if onProgress == nil {
		onProgress = func(string, int) {}
	}

	// Gate on a fresh completion status. If tests are missing, the generate
	// endpoint must not be called at all; the caller gets the missing names.
	status, err := s.completion.GetCompletionStatus(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("check completion status before generation: %w", err)
	}
	if !status.AllCompleted {
		log.Printf("INFO: [InsightsService] Generation blocked for userID %s: %d of %d tests missing.", userID, len(status.MissingTests), status.TotalTests)
		return nil, &IncompleteError{
			CompletedTests: status.CompletedTests,
			MissingTests:   status.MissingTests,
			TotalTests:     status.TotalTests,
		}
	}

	onProgress("preparing your results", 0)
	s.wakeWorker(ctx)

	// Aggregate every completed result into the submission payload.
	results, err := s.results.ListResults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate test results for generation: %w", err)
	}

	payload := struct {
		UserID  string              `json:"user_id"`
		Results []models.TestResult `json:"results"`
	}{UserID: userID, Results: results}

	onProgress("submitting to the analysis engine", 5)
	var resp models.GenerateResponse
	if err := s.rest.PostJSON(ctx, "/api/v1/results_service/ai-insights/generate", payload, &resp); err != nil {
		log.Printf("ERROR: [InsightsService] Generate submission failed for userID %s: %v", userID, err)
		return nil, fmt.Errorf("submit report generation for user %s: %w", userID, err)
	}

	if resp.RedirectToHistory {
		// A report for this completed set already exists. Terminal success;
		// the poll loop is never entered and the caller navigates to history.
		log.Printf("INFO: [InsightsService] Report already exists for userID %s, redirecting to history.", userID)
		onProgress("report already available", 100)
		return &models.GenerateReportOutcome{Insights: resp.Insights, RedirectToHistory: true}, nil
	}
	if !resp.Success && resp.Error != "" {
		return nil, &GenerationError{Message: resp.Error}
	}
	if resp.TaskID == "" {
		if len(resp.Insights) > 0 {
			// Synchronous completion without a redirect flag: treat as a
			// freshly generated report.
			s.finishSuccess(userID, onProgress)
			return &models.GenerateReportOutcome{Insights: resp.Insights}, nil
		}
		return nil, fmt.Errorf("generate endpoint returned neither a task id nor a result for user %s", userID)
	}

	log.Printf("INFO: [InsightsService] Generation task %s started for userID %s, polling every %s.", resp.TaskID, userID, s.opts.PollInterval)
	return s.poll(ctx, userID, resp.TaskID, onProgress)
}

// poll drives the task state machine until a terminal status, the overall
// deadline, or ctx cancellation.
func (s *insightsService) poll(ctx context.Context, userID, taskID string, onProgress ProgressFunc) (*models.GenerateReportOutcome, error) {
	started := s.now()
	maxPercent := 0
	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("INFO: [InsightsService] Poll loop for task %s cancelled (userID %s).", taskID, userID)
			return nil, ctx.Err()
		case <-timer.C:
		}

		elapsed := s.now().Sub(started)
		if elapsed >= s.opts.PollDeadline {
			log.Printf("WARN: [InsightsService] Task %s for userID %s exceeded the %s deadline.", taskID, userID, s.opts.PollDeadline)
			return nil, &TimeoutError{Elapsed: elapsed}
		}

		var task models.AIInsightsTask
		path := fmt.Sprintf("/api/v1/results_service/ai-insights/task/%s", taskID)
		if err := s.rest.GetJSON(ctx, path, &task); err != nil {
			log.Printf("ERROR: [InsightsService] Poll of task %s failed for userID %s: %v", taskID, userID, err)
			return nil, fmt.Errorf("poll generation task %s: %w", taskID, err)
		}

		// Percentages from the worker can arrive out of order; report a
		// monotonically non-decreasing value to the caller.
		if task.Progress.Progress > maxPercent {
			maxPercent = task.Progress.Progress
		}

		switch task.Status {
		case models.TaskStatusSucceeded:
			if task.Result == nil || !task.Result.Success {
				msg := "worker reported success without a result payload"
				if task.Result != nil && task.Result.Error != "" {
					msg = task.Result.Error
				}
				return nil, &GenerationError{Message: msg}
			}
			s.finishSuccess(userID, onProgress)
			log.Printf("INFO: [InsightsService] Task %s succeeded for userID %s.", taskID, userID)
			return &models.GenerateReportOutcome{Insights: task.Result.Insights}, nil

		case models.TaskStatusFailed:
			msg := "report generation failed"
			if task.Result != nil && task.Result.Error != "" {
				msg = task.Result.Error
			}
			log.Printf("WARN: [InsightsService] Task %s failed for userID %s: %s", taskID, userID, msg)
			return nil, &GenerationError{Message: msg}

		default:
			onProgress(stageMessage(task), maxPercent)
			timer.Reset(s.opts.PollInterval)
		}
	}
}

// finishSuccess invalidates the caches a freshly generated report makes stale.
func (s *insightsService) finishSuccess(userID string, onProgress ProgressFunc) {
	onProgress("report ready", 100)
	s.history.Invalidate(userID)
	if s.opts.OnReportGenerated != nil {
		s.opts.OnReportGenerated(userID)
	}
}

// wakeWorker fires the best-effort ping that spins up a cold AI worker.
// Any failure is logged and swallowed; the main flow never sees it.
func (s *insightsService) wakeWorker(ctx context.Context) {
	if s.opts.WakeURL == "" {
		return
	}
	wakeCtx, cancel := context.WithTimeout(ctx, s.opts.WakeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(wakeCtx, http.MethodGet, s.opts.WakeURL, nil)
	if err != nil {
		log.Printf("WARN: [InsightsService] Could not build worker wake request: %v", err)
		return
	}
	resp, err := s.wakeClient.Do(req)
	if err != nil {
		log.Printf("WARN: [InsightsService] Worker wake ping failed (ignored): %v", err)
		return
	}
	resp.Body.Close()
	log.Printf("INFO: [InsightsService] Worker wake ping answered with HTTP %d.", resp.StatusCode)
}

func stageMessage(task models.AIInsightsTask) string {
	if task.Progress.Stage != "" {
		return task.Progress.Stage
	}
	switch task.Status {
	case models.TaskStatusPending:
		return "waiting for an analysis worker"
	case models.TaskStatusRunning:
		return "generating your comprehensive report"
	default:
		return string(task.Status)
	}
}
