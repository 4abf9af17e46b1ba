// Package service provides business logic for the workspace assistant.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/workspace-assistant/internal/assistant"
	"github.com/capitalize-ai/workspace-assistant/internal/llm"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
	"github.com/capitalize-ai/workspace-assistant/pkg/metrics"
)

// TurnHandler folds a transcript into a system prompt, executing at most one
// action per service on the way.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn assistant.Turn) *assistant.TurnContext
}

// TokenCallback is called for each token during streaming.
type TokenCallback func(token string, index int) error

// ChatConfig holds LLM call settings.
type ChatConfig struct {
	Model     string
	MaxTokens int
}

// ChatService runs one assistant turn and streams the LLM reply.
type ChatService struct {
	turns     TurnHandler
	llmClient llm.Client
	cfg       ChatConfig
	logger    *logger.Logger
}

// NewChatService creates a new chat service. llmClient may be nil, in which
// case every turn fails with llm.ErrNotConfigured.
func NewChatService(turns TurnHandler, llmClient llm.Client, cfg ChatConfig, log *logger.Logger) *ChatService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &ChatService{
		turns:     turns,
		llmClient: llmClient,
		cfg:       cfg,
		logger:    log,
	}
}

// Stream dispatches the turn and streams the completion through onToken.
// The returned DoneEvent is non-nil whenever the dispatcher ran, even if the
// LLM call failed afterwards.
func (s *ChatService) Stream(ctx context.Context, userID string, req *model.ChatRequest, onToken TokenCallback) (*model.DoneEvent, error) {
	if s.llmClient == nil {
		return nil, llm.ErrNotConfigured
	}

	tc := s.turns.HandleTurn(ctx, assistant.Turn{
		ID:         uuid.Must(uuid.NewV7()).String(),
		UserID:     userID,
		Transcript: req.Messages,
		Connectors: req.Connectors,
	})
	done := &model.DoneEvent{TurnID: tc.TurnID, Actions: tc.Actions}

	messages := make([]llm.ChatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.cfg.Model
	}

	start := time.Now()
	resp, err := s.llmClient.CompleteStream(ctx, &llm.CompletionRequest{
		Model:     modelName,
		System:    tc.SystemPrompt,
		Messages:  messages,
		MaxTokens: s.cfg.MaxTokens,
	}, func(token string, index int) error {
		return onToken(token, index)
	})
	if err != nil {
		status := "error"
		if errors.Is(err, llm.ErrRateLimited) {
			status = "rate_limited"
		}
		metrics.RecordLLMStream(s.llmClient.Name(), status, time.Since(start).Seconds(), 0, 0)
		s.logger.Warn("LLM stream failed",
			zap.String("turn_id", tc.TurnID),
			zap.String("provider", s.llmClient.Name()),
			zap.Error(err),
		)
		return done, fmt.Errorf("LLM stream failed: %w", err)
	}

	metrics.RecordLLMStream(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	s.logger.Info("turn completed",
		zap.String("turn_id", tc.TurnID),
		zap.String("model", resp.Model),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int("actions", len(tc.Actions)),
	)
	return done, nil
}
