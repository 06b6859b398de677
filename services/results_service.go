package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"careercompass/cache"
	"careercompass/clients"
	"careercompass/models"
)

// ResultsService wraps the results microservice: listing and fetching scored
// test results, submitting finished tests and exporting result files.
type ResultsService interface {
	ListResults(ctx context.Context, userID string) ([]models.TestResult, error)
	GetResult(ctx context.Context, userID, resultID string) (*models.TestResult, error)
	SubmitAnswers(ctx context.Context, userID string, req models.SubmitAnswersRequest) (*models.TestResult, error)
	// DownloadResult proxies a result export. format is one of "pdf", "json", "csv".
	DownloadResult(ctx context.Context, resultID, format string) (data []byte, contentType string, err error)
	InvalidateUser(userID string)
}

type resultsService struct {
	rest       *clients.REST
	cache      *cache.TTLCache
	onMutation func(userID string) // Invalidates dependent caches (completion, insights history)
}

// NewResultsService creates a ResultsService. onMutation is called after any
// successful submission so dependent caches can be invalidated; it may be nil.
func NewResultsService(rest *clients.REST, ttl time.Duration, onMutation func(userID string)) ResultsService {
	return &resultsService{
		rest:       rest,
		cache:      cache.New("ResultsCache", ttl),
		onMutation: onMutation,
	}
}

func (s *resultsService) ListResults(ctx context.Context, userID string) ([]models.TestResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	v, err := s.cache.Get(ctx, userID, func(ctx context.Context) (interface{}, error) {
		var results []models.TestResult
		path := fmt.Sprintf("/api/v1/results_service/results/%s", userID)
		if err := s.rest.GetJSON(ctx, path, &results); err != nil {
			log.Printf("ERROR: [ResultsService] Failed to list results for userID %s: %v", userID, err)
			return nil, fmt.Errorf("list results for user %s: %w", userID, err)
		}
		log.Printf("INFO: [ResultsService] Retrieved %d results for userID %s.", len(results), userID)
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.TestResult), nil
}

func (s *resultsService) GetResult(ctx context.Context, userID, resultID string) (*models.TestResult, error) {
	// Single results ride on the cached listing; a miss there falls through to
	// the per-result endpoint (e.g. a fresh re-take not yet listed).
	if results, err := s.ListResults(ctx, userID); err == nil {
		for i := range results {
			if results[i].ID == resultID {
				return &results[i], nil
			}
		}
	}

	var result models.TestResult
	path := fmt.Sprintf("/api/v1/results_service/result/%s", url.PathEscape(resultID))
	if err := s.rest.GetJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("fetch result %s: %w", resultID, err)
	}
	return &result, nil
}

func (s *resultsService) SubmitAnswers(ctx context.Context, userID string, req models.SubmitAnswersRequest) (*models.TestResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	payload := struct {
		UserID string `json:"user_id"`
		models.SubmitAnswersRequest
	}{UserID: userID, SubmitAnswersRequest: req}

	var result models.TestResult
	if err := s.rest.PostJSON(ctx, "/api/v1/results_service/results", payload, &result); err != nil {
		log.Printf("ERROR: [ResultsService] Failed to submit answers for userID %s, testID %s: %v", userID, req.TestID, err)
		return nil, fmt.Errorf("submit answers for test %s: %w", req.TestID, err)
	}

	// A new result exists: this user's cached listing and everything derived
	// from it (completion status, report eligibility) is now stale.
	s.cache.Invalidate(userID)
	if s.onMutation != nil {
		s.onMutation(userID)
	}
	log.Printf("INFO: [ResultsService] Submitted test %s for userID %s, result ID %s.", req.TestID, userID, result.ID)
	return &result, nil
}

func (s *resultsService) DownloadResult(ctx context.Context, resultID, format string) ([]byte, string, error) {
	path := fmt.Sprintf("/api/v1/results_service/result/%s/download?format=%s", url.PathEscape(resultID), url.QueryEscape(format))
	data, contentType, err := s.rest.GetBlob(ctx, path)
	if err != nil {
		log.Printf("ERROR: [ResultsService] Download of result %s (%s) failed: %v", resultID, format, err)
		return nil, "", err
	}
	return data, contentType, nil
}

func (s *resultsService) InvalidateUser(userID string) {
	s.cache.Invalidate(userID)
}
