package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/ingest"
	"tradesync/src/model"
	"tradesync/src/parser"
	"tradesync/src/repository"
)

// SignalSource is the canonical source name for token-webhook signals.
const SignalSource = "signal-webhook"

type webhookUserSource interface {
	FindByWebhookToken(ctx context.Context, token string) (*model.User, error)
}

type signalWebhookResponse struct {
	Success bool               `json:"success"`
	Signal  *model.Signal      `json:"signal"`
	User    model.UserResponse `json:"user"`
}

// SignalWebhookHandler is the token-authenticated signal endpoint. The body
// is either a structured signal or `{body: "<free text>"}` routed through the
// text parser; either way it enters the pipeline as a SIGNAL event.
func SignalWebhookHandler(users webhookUserSource, processor eventProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "token query parameter is required"))
			return
		}

		user, err := users.FindByWebhookToken(r.Context(), token)
		if err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindUnexpected, "token lookup failed", err))
			return
		}
		if user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "invalid webhook token"))
			return
		}
		if !user.WebhookTokenEnabled {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "webhook token is disabled"))
			return
		}

		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindValidation, "failed to read request body", err))
			return
		}

		var payload ingest.Payload
		if len(rawBody) > 0 {
			if err := json.Unmarshal(rawBody, &payload); err != nil {
				// TradingView-style alerts can POST plain text; treat the body
				// as free text for the parser.
				payload = ingest.Payload{"body": string(rawBody)}
			}
		}
		if payload == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation, "request body is required"))
			return
		}

		result, err := processor.Process(r.Context(), user.ID, &ingest.InboundEvent{
			EventID:   uuid.NewString(),
			EventType: ingest.EventTypeSignal,
			Source:    SignalSource,
			Provider:  parser.DefaultProvider,
			Signal:    payload,
		})
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}

		logger.WithFields(map[string]interface{}{
			"user_id":   user.ID,
			"signal_id": result.Signal.ID,
			"symbol":    result.Signal.Symbol,
		}).Info("Webhook signal accepted")

		writeJSON(w, http.StatusOK, signalWebhookResponse{
			Success: true,
			Signal:  result.Signal,
			User:    user.ToResponse(),
		})
	}
}

// DefaultSignalWebhookHandler wires the handler to the production stack.
func DefaultSignalWebhookHandler(processor eventProcessor) http.HandlerFunc {
	return SignalWebhookHandler(repository.NewUserRepository(), processor)
}
