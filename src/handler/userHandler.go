package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"tradesync/src/apperr"
	"tradesync/src/auth"
	"tradesync/src/model"
	"tradesync/src/repository"
	"tradesync/src/utils"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userUpdater interface {
	Update(ctx context.Context, user *model.User) error
}

type loginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

// LoginHandler authenticates by email and password and issues an opaque
// session token. Each login replaces the previous session.
func LoginHandler(users userStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.LoginPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid login payload")
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindValidation, "invalid payload", err))
			return
		}
		if payload.Email == "" || payload.Password == "" {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation, "email and password are required"))
			return
		}

		user, err := users.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(payload.Email)))
		if err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "login failed", err))
			return
		}
		if user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "invalid email or password"))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
			logger.WithField("user_id", user.ID).Warn("password mismatch on login")
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "invalid email or password"))
			return
		}

		token, err := utils.NewToken()
		if err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "failed to issue session", err))
			return
		}

		user.SessionToken = token
		if err := users.Update(r.Context(), user); err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "failed to persist session", err))
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user.ToResponse()})
	}
}

// RotateWebhookTokenHandler (re)generates the session user's signal webhook
// token, invalidating the previous one.
func RotateWebhookTokenHandler(users userUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "Unauthorized"))
			return
		}

		token, err := utils.NewToken()
		if err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "failed to generate token", err))
			return
		}

		user.WebhookToken = token
		user.WebhookTokenEnabled = true
		if err := users.Update(r.Context(), user); err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "failed to persist token", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"webhookToken": token})
	}
}

// DefaultLoginHandler wires the handler to the production repository.
func DefaultLoginHandler() http.HandlerFunc {
	return LoginHandler(repository.NewUserRepository())
}

// DefaultRotateWebhookTokenHandler wires the handler to the production repository.
func DefaultRotateWebhookTokenHandler() http.HandlerFunc {
	return RotateWebhookTokenHandler(repository.NewUserRepository())
}
