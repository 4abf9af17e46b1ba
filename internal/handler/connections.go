package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/internal/service"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

// ConnectionsHandler handles Google service connection endpoints.
type ConnectionsHandler struct {
	connections     *service.ConnectionService
	successRedirect string
	logger          *logger.Logger
}

// NewConnectionsHandler creates a new connections handler. successRedirect,
// when set, is where the browser lands after the OAuth callback.
func NewConnectionsHandler(connSvc *service.ConnectionService, successRedirect string, log *logger.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{
		connections:     connSvc,
		successRedirect: successRedirect,
		logger:          log,
	}
}

// List handles GET /api/v1/connections
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.connections.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.logger.Error("failed to list connections", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to list connections")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connections": statuses,
	})
}

// Connect handles POST /api/v1/connections/{service}
func (h *ConnectionsHandler) Connect(w http.ResponseWriter, r *http.Request) {
	svc, err := middleware.ValidateService(chi.URLParam(r, "service"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.connections.Begin(middleware.GetUserID(r.Context()), svc)
	if err != nil {
		h.logger.Error("failed to start connection", zap.String("service", string(svc)), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to start connection")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Callback handles GET /oauth/callback
func (h *ConnectionsHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if denied := q.Get("error"); denied != "" {
		h.finish(w, r, "", denied)
		return
	}

	cred, err := h.connections.Complete(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("oauth exchange failed", zap.Error(err))
		h.finish(w, r, "", "exchange_failed")
		return
	}

	if h.successRedirect == "" {
		writeJSON(w, http.StatusOK, model.ConnectionStatus{
			Service:      cred.Service,
			Connected:    true,
			AccountEmail: cred.AccountEmail,
			Scopes:       cred.Scopes,
		})
		return
	}
	h.finish(w, r, cred.Service, "")
}

func (h *ConnectionsHandler) finish(w http.ResponseWriter, r *http.Request, svc model.Service, failure string) {
	if h.successRedirect == "" {
		writeError(w, r, http.StatusBadGateway, "authorization failed: "+failure)
		return
	}
	target, err := url.Parse(h.successRedirect)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "invalid redirect configuration")
		return
	}
	params := target.Query()
	if failure != "" {
		params.Set("error", failure)
	} else {
		params.Set("connected", string(svc))
	}
	target.RawQuery = params.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// Disconnect handles DELETE /api/v1/connections/{service}
func (h *ConnectionsHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	svc, err := middleware.ValidateService(chi.URLParam(r, "service"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.connections.Disconnect(r.Context(), middleware.GetUserID(r.Context()), svc); err != nil {
		h.logger.Error("failed to disconnect", zap.String("service", string(svc)), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to disconnect")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /api/v1/account
func (h *ConnectionsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	n, err := h.connections.DeleteAccount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.logger.Error("failed to delete account credentials", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to delete account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
