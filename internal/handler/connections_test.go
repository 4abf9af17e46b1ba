package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/internal/service"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

type stubProvider struct {
	exchangeErr  error
	disconnected []model.Service
}

func (s *stubProvider) AuthCodeURL(service model.Service, state string) string {
	return "https://accounts.example.com/auth?" + url.Values{"state": {state}, "svc": {string(service)}}.Encode()
}

func (s *stubProvider) Exchange(_ context.Context, userID string, service model.Service, _ string) (*model.Credential, error) {
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return &model.Credential{UserID: userID, Service: service, AccountEmail: "me@example.com", Scopes: []string{"s1"}}, nil
}

func (s *stubProvider) Status(context.Context, string) ([]model.ConnectionStatus, error) {
	return []model.ConnectionStatus{{Service: model.ServiceGmail, Connected: true}, {Service: model.ServiceCalendar}}, nil
}

func (s *stubProvider) Disconnect(_ context.Context, _ string, service model.Service) error {
	s.disconnected = append(s.disconnected, service)
	return nil
}

func (s *stubProvider) DeleteAccount(context.Context, string) (int64, error) {
	return 2, nil
}

func newConnectionsRouter(provider *stubProvider, redirect string) http.Handler {
	h := NewConnectionsHandler(service.NewConnectionService(provider, "secret", logger.Nop()), redirect, logger.Nop())

	r := chi.NewRouter()
	r.Get("/oauth/callback", h.Callback)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), "user-1", "")))
			})
		})
		r.Get("/connections", h.List)
		r.Post("/connections/{service}", h.Connect)
		r.Delete("/connections/{service}", h.Disconnect)
		r.Delete("/account", h.DeleteAccount)
	})
	return r
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func beginState(t *testing.T, h http.Handler, svc string) string {
	t.Helper()
	rec := serve(h, http.MethodPost, "/connections/"+svc)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ConnectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	u, err := url.Parse(resp.AuthURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestConnections_List(t *testing.T) {
	rec := serve(newConnectionsRouter(&stubProvider{}, ""), http.MethodGet, "/connections")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Connections []model.ConnectionStatus `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Connections, 2)
}

func TestConnections_ConnectUnknownService(t *testing.T) {
	rec := serve(newConnectionsRouter(&stubProvider{}, ""), http.MethodPost, "/connections/drive")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnections_CallbackJSON(t *testing.T) {
	h := newConnectionsRouter(&stubProvider{}, "")
	state := beginState(t, h, "gmail")

	rec := serve(h, http.MethodGet, "/oauth/callback?"+url.Values{"state": {state}, "code": {"abc"}}.Encode())

	assert.Equal(t, http.StatusOK, rec.Code)
	var status model.ConnectionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, model.ServiceGmail, status.Service)
	assert.True(t, status.Connected)
	assert.Equal(t, "me@example.com", status.AccountEmail)
}

func TestConnections_CallbackRedirect(t *testing.T) {
	h := newConnectionsRouter(&stubProvider{}, "https://app.example.com/settings?tab=connectors")
	state := beginState(t, h, "calendar")

	rec := serve(h, http.MethodGet, "/oauth/callback?"+url.Values{"state": {state}, "code": {"abc"}}.Encode())

	assert.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "calendar", loc.Query().Get("connected"))
	assert.Equal(t, "connectors", loc.Query().Get("tab"))
}

func TestConnections_CallbackFailures(t *testing.T) {
	t.Run("invalid state", func(t *testing.T) {
		rec := serve(newConnectionsRouter(&stubProvider{}, ""), http.MethodGet, "/oauth/callback?state=forged&code=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("consent denied", func(t *testing.T) {
		rec := serve(newConnectionsRouter(&stubProvider{}, "https://app.example.com/"), http.MethodGet, "/oauth/callback?error=access_denied")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "error=access_denied")
	})

	t.Run("consent denied without redirect", func(t *testing.T) {
		rec := serve(newConnectionsRouter(&stubProvider{}, ""), http.MethodGet, "/oauth/callback?error=access_denied")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("exchange failed", func(t *testing.T) {
		h := newConnectionsRouter(&stubProvider{exchangeErr: errors.New("invalid_grant")}, "")
		state := beginState(t, h, "gmail")
		rec := serve(h, http.MethodGet, "/oauth/callback?"+url.Values{"state": {state}, "code": {"abc"}}.Encode())
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "exchange_failed")
	})
}

func TestConnections_DisconnectAndDeleteAccount(t *testing.T) {
	provider := &stubProvider{}
	h := newConnectionsRouter(provider, "")

	rec := serve(h, http.MethodDelete, "/connections/gmail")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []model.Service{model.ServiceGmail}, provider.disconnected)

	rec = serve(h, http.MethodDelete, "/account")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
}
