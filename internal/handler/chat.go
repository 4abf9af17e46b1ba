package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/workspace-assistant/internal/llm"
	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/internal/service"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

const (
	maxChatBody      = 12 << 20
	maxErrorDetail   = 200
	rateLimitBackoff = 30
)

// ChatHandler handles the streaming chat endpoint.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateChatRequest(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	stream := &sseStream{w: w, flusher: flusher}
	defer stream.close()

	done, err := h.chatService.Stream(ctx, userID, &req, func(token string, index int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return stream.send("token", &model.TokenEvent{
			Token: token,
			Index: index,
		})
	})

	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Info("chat client disconnected", zap.String("user_id", userID))
			return
		}
		if !stream.started {
			h.writeChatError(w, r, err)
			return
		}
		code := "stream_error"
		if errors.Is(err, llm.ErrRateLimited) {
			code = "rate_limited"
		}
		stream.send("error", &model.ErrorEvent{
			Code:    code,
			Message: capped(err.Error()),
		})
		return
	}

	stream.send("done", done)
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		h.logger.Error("chat requested without an LLM provider", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "assistant is not configured")
	case errors.Is(err, llm.ErrRateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimitBackoff))
		resp := errorResponse(r, "rate limited, retry later")
		resp.RetryAfter = rateLimitBackoff
		writeJSON(w, http.StatusTooManyRequests, resp)
	default:
		writeError(w, r, http.StatusInternalServerError, "assistant service error: "+capped(err.Error()))
	}
}

func capped(s string) string {
	if r := []rune(s); len(r) > maxErrorDetail {
		return string(r[:maxErrorDetail]) + "…"
	}
	return s
}
