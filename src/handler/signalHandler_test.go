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

	"tradesync/src/apperr"
	"tradesync/src/ingest"
	"tradesync/src/model"
)

type mockWebhookUserSource struct {
	user *model.User
	err  error
}

func (m *mockWebhookUserSource) FindByWebhookToken(_ context.Context, _ string) (*model.User, error) {
	return m.user, m.err
}

func webhookUser() *model.User {
	return &model.User{ID: 9, Email: "trader@example.com", WebhookTokenEnabled: true}
}

func TestSignalWebhookMissingToken(t *testing.T) {
	handler := SignalWebhookHandler(&mockWebhookUserSource{}, &mockProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/signal", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSignalWebhookInvalidToken(t *testing.T) {
	handler := SignalWebhookHandler(&mockWebhookUserSource{user: nil}, &mockProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/signal?token=nope", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSignalWebhookDisabledToken(t *testing.T) {
	user := webhookUser()
	user.WebhookTokenEnabled = false
	handler := SignalWebhookHandler(&mockWebhookUserSource{user: user}, &mockProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/signal?token=tok", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSignalWebhookStructuredBody(t *testing.T) {
	processor := &mockProcessor{result: &ingest.Result{
		Signal: &model.Signal{ID: 12, Symbol: "EURUSD", Action: "BUY"},
	}}
	handler := SignalWebhookHandler(&mockWebhookUserSource{user: webhookUser()}, processor)

	body := []byte(`{"ticker":"EURUSD","action":"buy","close":1.1}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/signal?token=tok", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, processor.calls)
	assert.Equal(t, uint(9), processor.userID)
	assert.Equal(t, ingest.EventTypeSignal, processor.event.EventType)
	assert.NotEmpty(t, processor.event.EventID)
	assert.Equal(t, "EURUSD", processor.event.Signal.String("ticker"))

	var resp signalWebhookResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, uint(12), resp.Signal.ID)
	assert.Equal(t, "trader@example.com", resp.User.Email)
}

func TestSignalWebhookPlainTextBody(t *testing.T) {
	processor := &mockProcessor{result: &ingest.Result{
		Signal: &model.Signal{ID: 13, Symbol: "NQ1", Action: "BUY"},
	}}
	handler := SignalWebhookHandler(&mockWebhookUserSource{user: webhookUser()}, processor)

	body := []byte("🟢 BUY\nSymbol: NQ1!\nEntry: 21000")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/signal?token=tok", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, processor.calls)
	assert.Equal(t, string(body), processor.event.Signal.String("body"))
}

func TestSignalWebhookMissingFieldsIs400(t *testing.T) {
	processor := &mockProcessor{err: apperr.New(apperr.KindValidation, "signal payload missing symbol")}
	handler := SignalWebhookHandler(&mockWebhookUserSource{user: webhookUser()}, processor)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/signal?token=tok",
		bytes.NewReader([]byte(`{"action":"buy"}`)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
