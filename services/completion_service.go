package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"careercompass/cache"
	"careercompass/clients"
	"careercompass/models"
)

// CompletionService reports which required tests a user has completed.
// Consumers gate report generation on AllCompleted.
type CompletionService interface {
	// GetCompletionStatus returns the user's completion status. With bust set,
	// the local cache is bypassed and a cache-busting query parameter forces
	// the results service past any server-side cache as well.
	GetCompletionStatus(ctx context.Context, userID string, bust bool) (*models.CompletionStatus, error)
	InvalidateUser(userID string)
}

type completionService struct {
	rest  *clients.REST
	cache *cache.TTLCache
	now   func() time.Time
}

// NewCompletionService creates a CompletionService over the results microservice.
func NewCompletionService(rest *clients.REST, ttl time.Duration) CompletionService {
	return &completionService{
		rest:  rest,
		cache: cache.New("CompletionCache", ttl),
		now:   time.Now,
	}
}

func (s *completionService) GetCompletionStatus(ctx context.Context, userID string, bust bool) (*models.CompletionStatus, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	fetch := func(bustParam string) (*models.CompletionStatus, error) {
		path := fmt.Sprintf("/api/v1/results_service/completion-status/%s%s", userID, bustParam)
		var status models.CompletionStatus
		if err := s.rest.GetJSON(ctx, path, &status); err != nil {
			log.Printf("ERROR: [CompletionService] Failed to fetch completion status for userID %s: %v", userID, err)
			return nil, fmt.Errorf("fetch completion status for user %s: %w", userID, err)
		}
		status.UserID = userID
		return &status, nil
	}

	if bust {
		// Fresh fetch past both caches; the result still replaces the local
		// entry so subsequent plain reads see the latest state.
		status, err := fetch(fmt.Sprintf("?bust=%d", s.now().UnixNano()))
		if err != nil {
			s.cache.Invalidate(userID)
			return nil, err
		}
		s.cache.Set(userID, status)
		log.Printf("INFO: [CompletionService] Fresh completion status for userID %s: %d/%d completed.", userID, len(status.CompletedTests), status.TotalTests)
		return status, nil
	}

	v, err := s.cache.Get(ctx, userID, func(ctx context.Context) (interface{}, error) {
		return fetch("")
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CompletionStatus), nil
}

func (s *completionService) InvalidateUser(userID string) {
	s.cache.Invalidate(userID)
}
