package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesync/src/auth"
	"tradesync/src/model"
)

type mockFeed struct {
	mu            sync.Mutex
	notifications []model.Notification
}

func (m *mockFeed) push(n model.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

func (m *mockFeed) FindByUserAfterID(_ context.Context, _ uint, lastID uint) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Notification
	for _, n := range m.notifications {
		if n.ID > lastID {
			out = append(out, n)
		}
	}
	return out, nil
}

func testConfig() *Config {
	return &Config{PollInterval: 10 * time.Millisecond, PingInterval: time.Minute}
}

func TestStreamRejectsUnauthenticated(t *testing.T) {
	handler := NotificationsStreamHandler(&mockFeed{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestStreamPushesNewNotificationsInOrder(t *testing.T) {
	feed := &mockFeed{}
	feed.push(model.Notification{ID: 1, UserID: 1, Title: "first"})

	handler := NotificationsStreamHandler(feed, testConfig())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), &model.User{ID: 1})))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/notifications"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var got model.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, uint(1), got.ID)
	assert.Equal(t, "first", got.Title)

	// A notification created after the stream opened is pushed incrementally.
	feed.push(model.Notification{ID: 2, UserID: 1, Title: "second"})
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, uint(2), got.ID)

	// Already-pushed rows are not re-sent; the next read times out instead.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	assert.Error(t, conn.ReadJSON(&got))
}
