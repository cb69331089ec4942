package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tradesync/src/model"
)

type mockUserStore struct {
	user    *model.User
	findErr error

	updated   *model.User
	updateErr error
}

func (m *mockUserStore) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return m.user, m.findErr
}

func (m *mockUserStore) Update(_ context.Context, user *model.User) error {
	m.updated = user
	return m.updateErr
}

func hashedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{ID: 4, Email: "trader@example.com", Password: string(hash)}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler := LoginHandler(&mockUserStore{user: nil})

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewReader([]byte(`{"email":"x@y.z","password":"pw"}`)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	handler := LoginHandler(&mockUserStore{user: hashedUser(t, "correct")})

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewReader([]byte(`{"email":"trader@example.com","password":"wrong"}`)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginIssuesSessionToken(t *testing.T) {
	store := &mockUserStore{user: hashedUser(t, "correct")}
	handler := LoginHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewReader([]byte(`{"email":"trader@example.com","password":"correct"}`)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, store.updated)
	assert.NotEmpty(t, store.updated.SessionToken)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, store.updated.SessionToken, resp.Token)
	assert.Equal(t, "trader@example.com", resp.User.Email)
}

func TestRotateWebhookTokenUnauthorized(t *testing.T) {
	handler := RotateWebhookTokenHandler(&mockUserStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook-token", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRotateWebhookTokenReplacesToken(t *testing.T) {
	store := &mockUserStore{}
	handler := RotateWebhookTokenHandler(store)

	user := &model.User{ID: 4, WebhookToken: "old-token"}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/webhook-token", nil), user)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, store.updated)
	assert.NotEqual(t, "old-token", store.updated.WebhookToken)
	assert.True(t, store.updated.WebhookTokenEnabled)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, store.updated.WebhookToken, resp["webhookToken"])
}
