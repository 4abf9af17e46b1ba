package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type connectivity bool

func (c connectivity) IsConnected() bool { return bool(c) }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(pingFunc(func(context.Context) error { return nil }), nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("disk I/O error") })

	tests := []struct {
		name   string
		h      *HealthHandler
		status int
		reason string
	}{
		{"store only", NewHealthHandler(ok, nil), http.StatusOK, ""},
		{"store and nats", NewHealthHandler(ok, connectivity(true)), http.StatusOK, ""},
		{"store down", NewHealthHandler(down, connectivity(true)), http.StatusServiceUnavailable, "credential store unavailable"},
		{"nats down", NewHealthHandler(ok, connectivity(false)), http.StatusServiceUnavailable, "NATS not connected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.reason != "" {
				assert.Contains(t, rec.Body.String(), tt.reason)
			}
		})
	}
}
