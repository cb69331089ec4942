package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tradesync/src/apperr"
	"tradesync/src/auth"
	"tradesync/src/model"
	"tradesync/src/repository"
)

type notificationStore interface {
	FindLatestByUser(ctx context.Context, userID uint, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID uint, id uint) (bool, error)
}

// ListNotificationsHandler returns the session user's newest notifications.
func ListNotificationsHandler(notifications notificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "Unauthorized"))
			return
		}

		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				apperr.WriteJSON(w, apperr.New(apperr.KindValidation, "invalid limit"))
				return
			}
			limit = parsed
		}

		list, err := notifications.FindLatestByUser(r.Context(), user.ID, limit)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}

// MarkNotificationReadHandler flags one notification as read.
func MarkNotificationReadHandler(notifications notificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "Unauthorized"))
			return
		}

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation, "invalid notification id"))
			return
		}

		updated, err := notifications.MarkRead(r.Context(), user.ID, uint(id))
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}
		if !updated {
			apperr.WriteJSON(w, apperr.New(apperr.KindNotFound, "notification not found"))
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"read": true})
	}
}

// DefaultListNotificationsHandler wires the handler to the production repository.
func DefaultListNotificationsHandler() http.HandlerFunc {
	return ListNotificationsHandler(repository.NewNotificationRepository())
}

// DefaultMarkNotificationReadHandler wires the handler to the production repository.
func DefaultMarkNotificationReadHandler() http.HandlerFunc {
	return MarkNotificationReadHandler(repository.NewNotificationRepository())
}
