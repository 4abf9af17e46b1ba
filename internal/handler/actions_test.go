package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

type stubLister struct {
	events   []model.ActionEvent
	err      error
	gotUser  string
	gotLimit int
}

func (s *stubLister) Recent(_ context.Context, userID string, limit int) ([]model.ActionEvent, error) {
	s.gotUser, s.gotLimit = userID, limit
	return s.events, s.err
}

func listActions(h *ActionsHandler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/actions"+query, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), "user-1", ""))
	rec := httptest.NewRecorder()
	h.List(rec, req)
	return rec
}

func TestActions_List(t *testing.T) {
	lister := &stubLister{events: []model.ActionEvent{{ID: "a1", TurnID: "t1", UserID: "user-1"}}}
	h := NewActionsHandler(lister, logger.Nop())

	rec := listActions(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a1"`)
	assert.Equal(t, "user-1", lister.gotUser)
	assert.Equal(t, defaultActionLimit, lister.gotLimit)

	listActions(h, "?limit=500")
	assert.Equal(t, maxActionLimit, lister.gotLimit)

	listActions(h, "?limit=5")
	assert.Equal(t, 5, lister.gotLimit)
}

func TestActions_EmptyIsArray(t *testing.T) {
	rec := listActions(NewActionsHandler(&stubLister{}, logger.Nop()), "")
	assert.JSONEq(t, `{"actions":[]}`, rec.Body.String())
}

func TestActions_Errors(t *testing.T) {
	h := NewActionsHandler(&stubLister{}, logger.Nop())
	for _, q := range []string{"?limit=0", "?limit=-1", "?limit=ten"} {
		assert.Equal(t, http.StatusBadRequest, listActions(h, q).Code, q)
	}

	failing := NewActionsHandler(&stubLister{err: errors.New("stream missing")}, logger.Nop())
	assert.Equal(t, http.StatusInternalServerError, listActions(failing, "").Code)
}

func TestActions_ErrorCarriesRequestID(t *testing.T) {
	h := NewActionsHandler(&stubLister{}, logger.Nop())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/actions?limit=ten", nil)
	ctx := context.WithValue(req.Context(), middleware.CorrelationIDKey, "req-42")
	rec := httptest.NewRecorder()

	h.List(rec, req.WithContext(middleware.WithUser(ctx, "user-1", "")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"limit must be a positive integer","request_id":"req-42"}`, rec.Body.String())
}
