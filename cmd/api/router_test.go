package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/workspace-assistant/internal/config"
	"github.com/capitalize-ai/workspace-assistant/internal/handler"
	"github.com/capitalize-ai/workspace-assistant/internal/service"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testRouter(actions *handler.ActionsHandler) http.Handler {
	log := logger.Nop()
	cfg := &config.Config{JWTSecret: "secret", RateLimitRequests: 5, RateLimitWindow: time.Minute}
	return newRouter(routerDeps{
		cfg:         cfg,
		health:      handler.NewHealthHandler(okPinger{}, nil),
		chat:        handler.NewChatHandler(service.NewChatService(nil, nil, service.ChatConfig{}, log), log),
		connections: handler.NewConnectionsHandler(service.NewConnectionService(nil, cfg.JWTSecret, log), "", log),
		actions:     actions,
		logger:      log,
	})
}

func TestRouter(t *testing.T) {
	r := testRouter(nil)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/chat", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/connections", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/account", http.StatusUnauthorized},
		{http.MethodGet, "/oauth/callback?state=bogus&code=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}
