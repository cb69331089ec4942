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
	"tradesync/src/auth"
	"tradesync/src/copytrade"
	"tradesync/src/model"
)

type mockCopyExecutor struct {
	result *copytrade.Result
	err    error

	calls  int
	userID uint
	req    *copytrade.Request
}

func (m *mockCopyExecutor) Execute(_ context.Context, userID uint, req *copytrade.Request) (*copytrade.Result, error) {
	m.calls++
	m.userID = userID
	m.req = req
	return m.result, m.err
}

func authed(req *http.Request, user *model.User) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), user))
}

func TestCopyExecuteUnauthorized(t *testing.T) {
	handler := CopyExecuteHandler(&mockCopyExecutor{})

	req := httptest.NewRequest(http.MethodPost, "/api/copy/execute", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCopyExecuteMissingIDs(t *testing.T) {
	handler := CopyExecuteHandler(&mockCopyExecutor{})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/copy/execute",
		bytes.NewReader([]byte(`{"sourceTradeId":1}`))), &model.User{ID: 1})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCopyExecutePolicyErrorStatusPreserved(t *testing.T) {
	executor := &mockCopyExecutor{
		err: apperr.New(apperr.KindPolicy, "daily copy limit reached").WithStatus(http.StatusTooManyRequests),
	}
	handler := CopyExecuteHandler(executor)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/copy/execute",
		bytes.NewReader([]byte(`{"sourceTradeId":1,"copyParamsId":2}`))), &model.User{ID: 1})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestCopyExecuteSuccess(t *testing.T) {
	executor := &mockCopyExecutor{result: &copytrade.Result{
		CopiedTradeID:   5,
		TargetTradeID:   "sim-abc",
		Status:          model.CopyStatusExecuted,
		ExecutionTimeMs: 12,
	}}
	handler := CopyExecuteHandler(executor)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/copy/execute",
		bytes.NewReader([]byte(`{"sourceTradeId":4,"copyParamsId":2,"confirmed":true}`))), &model.User{ID: 11})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, executor.calls)
	assert.Equal(t, uint(11), executor.userID)
	assert.Equal(t, uint(4), executor.req.SourceTradeID)
	assert.True(t, executor.req.Confirmed)

	var resp copytrade.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "sim-abc", resp.TargetTradeID)
	assert.Equal(t, uint(5), resp.CopiedTradeID)
}
