package models

import (
	"time"
)

// QuestionType defines the type of a questionnaire question.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice" // Radio buttons
	QuestionTypeMultiChoice  QuestionType = "multi_choice"  // Checkboxes
	QuestionTypeLikert       QuestionType = "likert"        // 1-5 agreement scale
	QuestionTypeOpenText     QuestionType = "open_text"     // Free text input
)

// Test describes one assessment questionnaire (MBTI, Big Five, RIASEC, VARK, ...)
// as served by the question microservice.
type Test struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`            // Machine name, e.g. "mbti"
	Title         string    `json:"title"`           // Display title, e.g. "Myers-Briggs Type Indicator"
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	IsRequired    bool      `json:"is_required"` // Counts toward the comprehensive-report completion set
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Question is a single question within a Test.
type Question struct {
	ID           string       `json:"id"`
	TestID       string       `json:"test_id"`
	Order        int          `json:"order"`
	Text         string       `json:"text"`
	QuestionType QuestionType `json:"question_type"`
	Options      []string     `json:"options,omitempty"` // For choice-based questions
	Dimension    string       `json:"dimension,omitempty"` // Scoring dimension this question feeds (e.g. "E/I")
	IsRequired   bool         `json:"is_required"`
}

// TestUpsert is the admin payload for creating or updating a test definition.
type TestUpsert struct {
	Name        string `json:"name" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	IsRequired  bool   `json:"is_required"`
}

// QuestionUpsert is the admin payload for creating or updating a question.
type QuestionUpsert struct {
	TestID       string       `json:"test_id" binding:"required"`
	Order        int          `json:"order"`
	Text         string       `json:"text" binding:"required"`
	QuestionType QuestionType `json:"question_type" binding:"required"`
	Options      []string     `json:"options,omitempty"`
	Dimension    string       `json:"dimension,omitempty"`
	IsRequired   bool         `json:"is_required"`
}
