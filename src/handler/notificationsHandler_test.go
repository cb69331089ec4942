package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesync/src/model"
)

type mockNotificationStore struct {
	list    []model.Notification
	listErr error

	marked  bool
	markErr error
	markID  uint
}

func (m *mockNotificationStore) FindLatestByUser(_ context.Context, _ uint, _ int) ([]model.Notification, error) {
	return m.list, m.listErr
}

func (m *mockNotificationStore) MarkRead(_ context.Context, _ uint, id uint) (bool, error) {
	m.markID = id
	return m.marked, m.markErr
}

func TestListNotificationsUnauthorized(t *testing.T) {
	handler := ListNotificationsHandler(&mockNotificationStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListNotificationsInvalidLimit(t *testing.T) {
	handler := ListNotificationsHandler(&mockNotificationStore{})

	req := authed(httptest.NewRequest(http.MethodGet, "/api/notifications?limit=abc", nil), &model.User{ID: 1})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListNotificationsSuccess(t *testing.T) {
	store := &mockNotificationStore{list: []model.Notification{
		{ID: 2, Title: "Copied buy EURUSD"},
		{ID: 1, Title: "Signal: BUY NQ1"},
	}}
	handler := ListNotificationsHandler(store)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/notifications?limit=10", nil), &model.User{ID: 1})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []model.Notification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, uint(2), resp[0].ID)
}

func markReadRequest(t *testing.T, id string, user *model.User) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+id+"/read", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if user != nil {
		req = authed(req, user)
	}
	return req
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	handler := MarkNotificationReadHandler(&mockNotificationStore{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, markReadRequest(t, "abc", &model.User{ID: 1}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	handler := MarkNotificationReadHandler(&mockNotificationStore{marked: false})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, markReadRequest(t, "5", &model.User{ID: 1}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	store := &mockNotificationStore{marked: true}
	handler := MarkNotificationReadHandler(store)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, markReadRequest(t, "5", &model.User{ID: 1}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(5), store.markID)
}
