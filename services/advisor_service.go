package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"careercompass/config"
	"careercompass/models"
	"careercompass/repository"
)

const defaultAdvisorPrompt = "You are a supportive career advisor. Ground your guidance in the " +
	"user's assessment results when they are mentioned, be concrete, and keep answers short."

// ErrAdvisorUnavailable is returned when no LLM API key is configured.
var ErrAdvisorUnavailable = errors.New("career advisor is not configured")

// AdvisorService streams career-advice chat completions and persists the
// conversation so follow-up questions keep their context.
type AdvisorService interface {
	// StreamAdvice sends the user's message plus recent history to the model
	// and streams the completion to writer as server-sent events. It returns
	// the full assistant reply once the stream ends.
	StreamAdvice(ctx context.Context, userID string, message string, writer http.ResponseWriter) (string, error)
	GetChatHistory(userID string) ([]models.ChatMessage, error)
	// ClearHistory removes the user's stored conversation, e.g. when the
	// account is deleted.
	ClearHistory(userID string) error
}

type advisorService struct {
	chatRepo repository.ChatRepository
	cfg      *config.AdvisorConfig
}

// NewAdvisorService creates an AdvisorService backed by the configured
// OpenAI-compatible endpoint.
func NewAdvisorService(chatRepo repository.ChatRepository, cfg *config.AdvisorConfig) AdvisorService {
	return &advisorService{chatRepo: chatRepo, cfg: cfg}
}

func (s *advisorService) GetChatHistory(userID string) ([]models.ChatMessage, error) {
	return s.chatRepo.GetMessagesByUserID(userID)
}

func (s *advisorService) ClearHistory(userID string) error {
	return s.chatRepo.DeleteMessagesByUserID(userID)
}

func (s *advisorService) StreamAdvice(ctx context.Context, userID string, message string, writer http.ResponseWriter) (string, error) {
	if s.cfg.APIKey == "" {
		return "", ErrAdvisorUnavailable
	}

	clientConfig := openai.DefaultConfig(s.cfg.APIKey)
	if s.cfg.BaseURL != "" {
		clientConfig.BaseURL = s.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	systemPrompt := s.cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultAdvisorPrompt
	}

	llmMessages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}

	history, err := s.chatRepo.GetMessagesByUserID(userID)
	if err != nil {
		log.Printf("WARN: [AdvisorService] Could not load chat history for userID %s, continuing without: %v", userID, err)
		history = nil
	}
	historyLimit := s.cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 10
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if strings.EqualFold(msg.Role, "assistant") {
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages = append(llmMessages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	llmMessages = append(llmMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.cfg.Model,
		Messages: llmMessages,
		Stream:   true,
	})
	if err != nil {
		log.Printf("ERROR: [AdvisorService] CreateChatCompletionStream failed for model %s: %v", s.cfg.Model, err)
		return "", fmt.Errorf("advisor is temporarily unavailable: %w", err)
	}
	defer stream.Close()

	writer.Header().Set("Content-Type", "text/event-stream")
	writer.Header().Set("Cache-Control", "no-cache")
	writer.Header().Set("Connection", "keep-alive")

	if err := s.chatRepo.SaveMessage(models.ChatMessage{
		UserID: userID, Role: "user", Content: message, Timestamp: time.Now(),
	}); err != nil {
		log.Printf("WARN: [AdvisorService] Failed to persist user message for userID %s: %v", userID, err)
	}

	var full strings.Builder
	var streamErr error
	flusher, canFlush := writer.(http.Flusher)

	for {
		response, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			streamErr = fmt.Errorf("receive advisor stream chunk: %w", recvErr)
			log.Printf("ERROR: [AdvisorService] %v", streamErr)
			break
		}
		if len(response.Choices) == 0 {
			continue
		}
		content := response.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		full.WriteString(content)

		escaped := strings.ReplaceAll(content, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		if _, writeErr := fmt.Fprintf(writer, "data: {\"content\": \"%s\"}\n\n", escaped); writeErr != nil {
			streamErr = fmt.Errorf("write SSE chunk to client: %w", writeErr)
			break
		}
		if canFlush {
			flusher.Flush()
		}
	}

	reply := full.String()
	if reply != "" {
		if err := s.chatRepo.SaveMessage(models.ChatMessage{
			UserID: userID, Role: "assistant", Content: reply, Timestamp: time.Now(),
		}); err != nil {
			log.Printf("WARN: [AdvisorService] Failed to persist assistant reply for userID %s: %v", userID, err)
		}
	}
	return reply, streamErr
}
