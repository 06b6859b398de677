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

const testsCacheKey = "tests" // The test catalog is global, one cache entry

// QuestionService wraps the question microservice: the test catalog, the
// questions of each test, and the admin CRUD operations over both.
type QuestionService interface {
	ListTests(ctx context.Context) ([]models.Test, error)
	GetQuestions(ctx context.Context, testID string) ([]models.Question, error)

	CreateTest(ctx context.Context, req models.TestUpsert) (*models.Test, error)
	UpdateTest(ctx context.Context, testID string, req models.TestUpsert) (*models.Test, error)
	DeleteTest(ctx context.Context, testID string) error
	CreateQuestion(ctx context.Context, req models.QuestionUpsert) (*models.Question, error)
	UpdateQuestion(ctx context.Context, questionID string, req models.QuestionUpsert) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID string) error
}

type questionService struct {
	rest      *clients.REST
	tests     *cache.TTLCache
	questions *cache.TTLCache // Keyed by test id
}

// NewQuestionService creates a QuestionService over the question microservice.
func NewQuestionService(rest *clients.REST, ttl time.Duration) QuestionService {
	return &questionService{
		rest:      rest,
		tests:     cache.New("TestCatalogCache", ttl),
		questions: cache.New("QuestionsCache", ttl),
	}
}

func (s *questionService) ListTests(ctx context.Context) ([]models.Test, error) {
	v, err := s.tests.Get(ctx, testsCacheKey, func(ctx context.Context) (interface{}, error) {
		var tests []models.Test
		if err := s.rest.GetJSON(ctx, "/api/v1/question_service/tests", &tests); err != nil {
			log.Printf("ERROR: [QuestionService] Failed to list tests: %v", err)
			return nil, fmt.Errorf("list tests: %w", err)
		}
		log.Printf("INFO: [QuestionService] Retrieved %d tests from the catalog.", len(tests))
		return tests, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Test), nil
}

func (s *questionService) GetQuestions(ctx context.Context, testID string) ([]models.Question, error) {
	if testID == "" {
		return nil, fmt.Errorf("testID cannot be empty")
	}
	v, err := s.questions.Get(ctx, testID, func(ctx context.Context) (interface{}, error) {
		var questions []models.Question
		path := fmt.Sprintf("/api/v1/question_service/tests/%s/questions", url.PathEscape(testID))
		if err := s.rest.GetJSON(ctx, path, &questions); err != nil {
			log.Printf("ERROR: [QuestionService] Failed to fetch questions for test %s: %v", testID, err)
			return nil, fmt.Errorf("fetch questions for test %s: %w", testID, err)
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Question), nil
}

func (s *questionService) CreateTest(ctx context.Context, req models.TestUpsert) (*models.Test, error) {
	var test models.Test
	if err := s.rest.PostJSON(ctx, "/api/v1/question_service/tests", req, &test); err != nil {
		return nil, fmt.Errorf("create test '%s': %w", req.Name, err)
	}
	s.tests.Invalidate(testsCacheKey)
	log.Printf("INFO: [QuestionService] Created test '%s' (ID %s).", test.Name, test.ID)
	return &test, nil
}

func (s *questionService) UpdateTest(ctx context.Context, testID string, req models.TestUpsert) (*models.Test, error) {
	var test models.Test
	path := fmt.Sprintf("/api/v1/question_service/tests/%s", url.PathEscape(testID))
	if err := s.rest.PutJSON(ctx, path, req, &test); err != nil {
		return nil, fmt.Errorf("update test %s: %w", testID, err)
	}
	s.tests.Invalidate(testsCacheKey)
	s.questions.Invalidate(testID)
	log.Printf("INFO: [QuestionService] Updated test %s.", testID)
	return &test, nil
}

func (s *questionService) DeleteTest(ctx context.Context, testID string) error {
	path := fmt.Sprintf("/api/v1/question_service/tests/%s", url.PathEscape(testID))
	if err := s.rest.DeleteJSON(ctx, path, nil); err != nil {
		return fmt.Errorf("delete test %s: %w", testID, err)
	}
	s.tests.Invalidate(testsCacheKey)
	s.questions.Invalidate(testID)
	log.Printf("INFO: [QuestionService] Deleted test %s.", testID)
	return nil
}

func (s *questionService) CreateQuestion(ctx context.Context, req models.QuestionUpsert) (*models.Question, error) {
	var question models.Question
	if err := s.rest.PostJSON(ctx, "/api/v1/question_service/questions", req, &question); err != nil {
		return nil, fmt.Errorf("create question for test %s: %w", req.TestID, err)
	}
	s.questions.Invalidate(req.TestID)
	s.tests.Invalidate(testsCacheKey) // Question counts live on the catalog
	return &question, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, questionID string, req models.QuestionUpsert) (*models.Question, error) {
	var question models.Question
	path := fmt.Sprintf("/api/v1/question_service/questions/%s", url.PathEscape(questionID))
	if err := s.rest.PutJSON(ctx, path, req, &question); err != nil {
		return nil, fmt.Errorf("update question %s: %w", questionID, err)
	}
	s.questions.Invalidate(req.TestID)
	return &question, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, questionID string) error {
	path := fmt.Sprintf("/api/v1/question_service/questions/%s", url.PathEscape(questionID))
	var deleted models.Question
	if err := s.rest.DeleteJSON(ctx, path, &deleted); err != nil {
		return fmt.Errorf("delete question %s: %w", questionID, err)
	}
	if deleted.TestID != "" {
		s.questions.Invalidate(deleted.TestID)
	}
	s.tests.Invalidate(testsCacheKey)
	return nil
}
