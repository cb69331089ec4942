package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/auth"
	"tradesync/src/model"
	"tradesync/src/repository"
)

type notificationFeed interface {
	FindByUserAfterID(ctx context.Context, userID uint, lastID uint) ([]model.Notification, error)
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 15 * time.Second,
	// The session token already authenticates the request; the stream carries
	// no state-changing operations.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NotificationsStreamHandler upgrades to a websocket and pushes the session
// user's notifications as they are created. The store stays the source of
// truth; each connection polls incrementally from the last pushed id.
func NotificationsStreamHandler(feed notificationFeed, cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "Unauthorized"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer conn.Close()

		logger.WithField("user_id", user.ID).Info("Notification stream opened")
		streamNotifications(r.Context(), conn, feed, user.ID, cfg)
		logger.WithField("user_id", user.ID).Info("Notification stream closed")
	}
}

func streamNotifications(
	ctx context.Context,
	conn *websocket.Conn,
	feed notificationFeed,
	userID uint,
	cfg *Config,
) {
	// Reads are only needed to observe the peer closing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	poll := time.NewTicker(cfg.PollInterval)
	defer poll.Stop()
	ping := time.NewTicker(cfg.PingInterval)
	defer ping.Stop()

	var lastID uint

	for {
		select {
		case <-ctx.Done():
			return

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}

		case <-poll.C:
			notifications, err := feed.FindByUserAfterID(ctx, userID, lastID)
			if err != nil {
				logger.WithError(err).Error("notification poll failed")
				continue
			}
			for i := range notifications {
				if err := conn.WriteJSON(&notifications[i]); err != nil {
					return
				}
				lastID = notifications[i].ID
			}
		}
	}
}

// DefaultNotificationsStreamHandler wires the handler to the production stack.
func DefaultNotificationsStreamHandler() http.HandlerFunc {
	return NotificationsStreamHandler(repository.NewNotificationRepository(), GetConfig())
}
