package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"careercompass/clients"
	"careercompass/models"
)

// MockCompletionService is a mock type for the CompletionService interface.
type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) GetCompletionStatus(ctx context.Context, userID string, bust bool) (*models.CompletionStatus, error) {
	args := m.Called(ctx, userID, bust)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompletionStatus), args.Error(1)
}

func (m *MockCompletionService) InvalidateUser(userID string) {
	m.Called(userID)
}

// MockResultsService is a mock type for the ResultsService interface.
type MockResultsService struct {
	mock.Mock
}

func (m *MockResultsService) ListResults(ctx context.Context, userID string) ([]models.TestResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestResult), args.Error(1)
}

func (m *MockResultsService) GetResult(ctx context.Context, userID, resultID string) (*models.TestResult, error) {
	panic("not used by insights tests")
}

func (m *MockResultsService) SubmitAnswers(ctx context.Context, userID string, req models.SubmitAnswersRequest) (*models.TestResult, error) {
	panic("not used by insights tests")
}

func (m *MockResultsService) DownloadResult(ctx context.Context, resultID, format string) ([]byte, string, error) {
	panic("not used by insights tests")
}

func (m *MockResultsService) InvalidateUser(userID string) {
	m.Called(userID)
}

// progressRecorder captures every progress callback invocation.
type progressRecorder struct {
	mu       sync.Mutex
	stages   []string
	percents []int
}

func (p *progressRecorder) record(stage string, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, stage)
	p.percents = append(p.percents, percent)
}

func (p *progressRecorder) snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.percents))
	copy(out, p.percents)
	return out
}

func allCompletedStatus(userID string) *models.CompletionStatus {
	return &models.CompletionStatus{
		UserID:               userID,
		AllCompleted:         true,
		CompletedTests:       []string{"mbti", "bigfive", "riasec", "vark", "eq", "values", "skills"},
		TotalTests:           7,
		CompletionPercentage: 100,
	}
}

// taskBackend simulates the results service's generate/task endpoints.
type taskBackend struct {
	mu            sync.Mutex
	generateCalls int32
	pollCalls     int32
	generateResp  models.GenerateResponse
	pollResponses []models.AIInsightsTask // Served in order; last one repeats
	onPoll        func(n int32)
}

func (b *taskBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/results_service/ai-insights/generate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.generateCalls, 1)
		b.mu.Lock()
		resp := b.generateResp
		b.mu.Unlock()
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/v1/results_service/ai-insights/task/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&b.pollCalls, 1)
		if b.onPoll != nil {
			b.onPoll(n)
		}
		b.mu.Lock()
		idx := int(n) - 1
		if idx >= len(b.pollResponses) {
			idx = len(b.pollResponses) - 1
		}
		resp := b.pollResponses[idx]
		b.mu.Unlock()
		json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func newTestInsightsService(srvURL string, completion CompletionService, results ResultsService, generated *int32) InsightsService {
	return NewInsightsService(
		clients.NewREST("TestResultsClient", srvURL, nil),
		completion,
		results,
		InsightsOptions{
			PollInterval: 5 * time.Millisecond,
			PollDeadline: 2 * time.Second,
			OnReportGenerated: func(userID string) {
				if generated != nil {
					atomic.AddInt32(generated, 1)
				}
			},
		},
	)
}

func TestInsightsService_CompletionGating(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	t.Run("Generation is blocked with the missing test names when incomplete", func(t *testing.T) {
		backend := &taskBackend{}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(&models.CompletionStatus{
			UserID:               userID,
			AllCompleted:         false,
			CompletedTests:       []string{"mbti", "bigfive"},
			MissingTests:         []string{"riasec", "vark", "eq", "values", "skills"},
			TotalTests:           7,
			CompletionPercentage: 28.6,
		}, nil).Once()
		results := new(MockResultsService)

		svc := newTestInsightsService(srv.URL, completion, results, nil)
		outcome, err := svc.GenerateReport(ctx, userID, nil)

		assert.Nil(t, outcome)
		var incomplete *IncompleteError
		assert.True(t, errors.As(err, &incomplete), "expected *IncompleteError, got %v", err)
		assert.Equal(t, []string{"riasec", "vark", "eq", "values", "skills"}, incomplete.MissingTests)
		assert.Equal(t, 7, incomplete.TotalTests)
		// The message must name every remaining test so the UI can show
		// actionable guidance instead of a generic error.
		for _, name := range incomplete.MissingTests {
			assert.Contains(t, incomplete.Error(), name)
		}
		assert.EqualValues(t, 0, atomic.LoadInt32(&backend.generateCalls), "generate endpoint must not be called")
		completion.AssertExpectations(t)
	})

	t.Run("Generation proceeds when all tests are complete", func(t *testing.T) {
		backend := &taskBackend{
			generateResp: models.GenerateResponse{
				Success:  true,
				Insights: json.RawMessage(`{"summary":"existing"}`),
			},
		}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
		results := new(MockResultsService)
		results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()
		results.On("InvalidateUser", userID).Maybe()

		svc := newTestInsightsService(srv.URL, completion, results, nil)
		_, err := svc.GenerateReport(ctx, userID, nil)

		assert.NoError(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&backend.generateCalls))
	})
}

func TestInsightsService_RedirectShortCircuit(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	backend := &taskBackend{
		generateResp: models.GenerateResponse{
			Success:           true,
			Insights:          json.RawMessage(`{"summary":"already generated"}`),
			RedirectToHistory: true,
		},
	}
	srv := backend.server(t)
	defer srv.Close()

	completion := new(MockCompletionService)
	completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
	results := new(MockResultsService)
	results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()

	var generated int32
	svc := newTestInsightsService(srv.URL, completion, results, &generated)

	rec := &progressRecorder{}
	outcome, err := svc.GenerateReport(ctx, userID, rec.record)

	assert.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.True(t, outcome.RedirectToHistory, "caller must navigate to history, not render inline")
	assert.EqualValues(t, 0, atomic.LoadInt32(&backend.pollCalls), "poll loop must never be entered")
	assert.EqualValues(t, 0, atomic.LoadInt32(&generated), "an existing report generates nothing new")
}

func TestInsightsService_PollScenario(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	backend := &taskBackend{
		generateResp: models.GenerateResponse{TaskID: "abc"},
		pollResponses: []models.AIInsightsTask{
			{TaskID: "abc", Status: models.TaskStatusRunning, Progress: models.TaskProgress{Progress: 40}},
			{TaskID: "abc", Status: models.TaskStatusSucceeded, Result: &models.GenerateResult{
				Success:  true,
				Insights: json.RawMessage(`{"summary":"done","strengths":["analysis"]}`),
			}},
		},
	}
	srv := backend.server(t)
	defer srv.Close()

	completion := new(MockCompletionService)
	completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
	results := new(MockResultsService)
	results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}, {ID: "r2"}}, nil).Once()

	var generated int32
	svc := newTestInsightsService(srv.URL, completion, results, &generated)

	rec := &progressRecorder{}
	outcome, err := svc.GenerateReport(ctx, userID, rec.record)

	assert.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.False(t, outcome.RedirectToHistory)
	assert.JSONEq(t, `{"summary":"done","strengths":["analysis"]}`, string(outcome.Insights))

	percents := rec.snapshot()
	assert.Contains(t, percents, 40)
	assert.Equal(t, 100, percents[len(percents)-1], "final reported progress is 100")
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1], "reported progress must never decrease")
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&generated), "user caches invalidated exactly once")
	assert.EqualValues(t, 2, atomic.LoadInt32(&backend.pollCalls))
}

func TestInsightsService_TerminalFailures(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	t.Run("Worker failure surfaces the backend message verbatim", func(t *testing.T) {
		backend := &taskBackend{
			generateResp: models.GenerateResponse{TaskID: "abc"},
			pollResponses: []models.AIInsightsTask{
				{TaskID: "abc", Status: models.TaskStatusFailed, Result: &models.GenerateResult{
					Success: false,
					Error:   "insufficient assessment data for synthesis",
				}},
			},
		}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
		results := new(MockResultsService)
		results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()

		var generated int32
		svc := newTestInsightsService(srv.URL, completion, results, &generated)
		outcome, err := svc.GenerateReport(ctx, userID, nil)

		assert.Nil(t, outcome)
		var genErr *GenerationError
		assert.True(t, errors.As(err, &genErr), "expected *GenerationError, got %v", err)
		assert.Equal(t, "insufficient assessment data for synthesis", genErr.Message)
		assert.EqualValues(t, 0, atomic.LoadInt32(&generated), "failure invalidates nothing")
	})

	t.Run("Deadline overrun yields a timeout error distinct from a failure", func(t *testing.T) {
		backend := &taskBackend{
			generateResp: models.GenerateResponse{TaskID: "abc"},
			pollResponses: []models.AIInsightsTask{
				{TaskID: "abc", Status: models.TaskStatusRunning, Progress: models.TaskProgress{Progress: 10}},
			},
		}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
		results := new(MockResultsService)
		results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()

		svc := NewInsightsService(
			clients.NewREST("TestResultsClient", srv.URL, nil),
			completion, results,
			InsightsOptions{
				PollInterval: 5 * time.Millisecond,
				PollDeadline: 40 * time.Millisecond,
			},
		)

		outcome, err := svc.GenerateReport(ctx, userID, nil)

		assert.Nil(t, outcome)
		var timeout *TimeoutError
		assert.True(t, errors.As(err, &timeout), "expected *TimeoutError, got %v", err)
		var genErr *GenerationError
		assert.False(t, errors.As(err, &genErr), "timeout must not be mistaken for a worker failure")
		// The UI pattern-matches this message to offer the history escape hatch.
		assert.Contains(t, err.Error(), "check your test history")
	})

	t.Run("Cancelling the context stops the poll loop", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		backend := &taskBackend{
			generateResp: models.GenerateResponse{TaskID: "abc"},
			pollResponses: []models.AIInsightsTask{
				{TaskID: "abc", Status: models.TaskStatusRunning, Progress: models.TaskProgress{Progress: 10}},
			},
		}
		backend.onPoll = func(n int32) {
			if n == 1 {
				cancel()
			}
		}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
		results := new(MockResultsService)
		results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()

		svc := newTestInsightsService(srv.URL, completion, results, nil)
		_, err := svc.GenerateReport(cancelCtx, userID, nil)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)

		polls := atomic.LoadInt32(&backend.pollCalls)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, polls, atomic.LoadInt32(&backend.pollCalls), "no polls after cancellation")
	})
}

func TestInsightsService_WakePing(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	t.Run("A dead wake URL never aborts the flow", func(t *testing.T) {
		backend := &taskBackend{
			generateResp: models.GenerateResponse{
				Success:           true,
				Insights:          json.RawMessage(`{}`),
				RedirectToHistory: true,
			},
		}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
		results := new(MockResultsService)
		results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()

		svc := NewInsightsService(
			clients.NewREST("TestResultsClient", srv.URL, nil),
			completion, results,
			InsightsOptions{
				WakeURL:      "http://127.0.0.1:1", // Nothing listens here
				WakeTimeout:  50 * time.Millisecond,
				PollInterval: 5 * time.Millisecond,
				PollDeadline: time.Second,
			},
		)

		outcome, err := svc.GenerateReport(ctx, userID, nil)

		assert.NoError(t, err, "wake failures are logged and ignored")
		assert.True(t, outcome.RedirectToHistory)
	})

	t.Run("The wake ping hits the configured worker URL", func(t *testing.T) {
		var woken int32
		worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&woken, 1)
		}))
		defer worker.Close()

		backend := &taskBackend{
			generateResp: models.GenerateResponse{Success: true, Insights: json.RawMessage(`{}`), RedirectToHistory: true},
		}
		srv := backend.server(t)
		defer srv.Close()

		completion := new(MockCompletionService)
		completion.On("GetCompletionStatus", mock.Anything, userID, true).Return(allCompletedStatus(userID), nil).Once()
		results := new(MockResultsService)
		results.On("ListResults", mock.Anything, userID).Return([]models.TestResult{{ID: "r1"}}, nil).Once()

		svc := NewInsightsService(
			clients.NewREST("TestResultsClient", srv.URL, nil),
			completion, results,
			InsightsOptions{
				WakeURL:      worker.URL,
				PollInterval: 5 * time.Millisecond,
				PollDeadline: time.Second,
			},
		)

		_, err := svc.GenerateReport(ctx, userID, nil)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&woken))
	})
}

func TestInsightsService_History(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"

	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/api/v1/results_service/ai-insights/%s/history", userID), func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode([]models.AIInsightsHistoryItem{{ID: "ai1", UserID: userID}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewInsightsService(
		clients.NewREST("TestResultsClient", srv.URL, nil),
		new(MockCompletionService), new(MockResultsService),
		InsightsOptions{HistoryTTL: 5 * time.Minute},
	)

	items, err := svc.History(ctx, userID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)

	// Second read is served from cache.
	_, err = svc.History(ctx, userID)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	// Invalidation forces the next read back to the backend.
	svc.InvalidateUser(userID)
	_, err = svc.History(ctx, userID)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}
