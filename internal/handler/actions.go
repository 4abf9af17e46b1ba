package handler

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

const (
	defaultActionLimit = 20
	maxActionLimit     = 100
)

// ActionLister reads back the action audit trail.
type ActionLister interface {
	Recent(ctx context.Context, userID string, limit int) ([]model.ActionEvent, error)
}

// ActionsHandler exposes the user's recent action results.
type ActionsHandler struct {
	audit  ActionLister
	logger *logger.Logger
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(audit ActionLister, log *logger.Logger) *ActionsHandler {
	return &ActionsHandler{audit: audit, logger: log}
}

// List handles GET /api/v1/actions?limit=N
func (h *ActionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultActionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActionLimit)
	}

	events, err := h.audit.Recent(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		h.logger.Error("failed to read action audit", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to read actions")
		return
	}
	if events == nil {
		events = []model.ActionEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actions": events,
	})
}
