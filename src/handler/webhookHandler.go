package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/ingest"
	"tradesync/src/model"
	"tradesync/src/repository"
	"tradesync/src/signature"
)

const (
	headerTimestamp = "X-Timestamp"
	headerSignature = "X-Signature"
	headerEventID   = "X-Event-Id"
)

type connectionSource interface {
	FindBySource(ctx context.Context, source string) (*model.Connection, error)
}

type eventProcessor interface {
	Process(ctx context.Context, userID uint, ev *ingest.InboundEvent) (*ingest.Result, error)
}

// webhookEnvelope is the signed request body. The event identity comes from
// the X-Event-Id header; the envelope carries routing and payload only.
type webhookEnvelope struct {
	Source       string `json:"source"`
	EventType    string `json:"eventType"`
	ConnectionID *uint  `json:"connectionId,omitempty"`
	Provider     string `json:"provider,omitempty"`

	Trade    ingest.Payload   `json:"trade,omitempty"`
	Trades   []ingest.Payload `json:"trades,omitempty"`
	Snapshot ingest.Payload   `json:"snapshot,omitempty"`
	Signal   ingest.Payload   `json:"signal,omitempty"`
}

type webhookResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`

	TradesCreated int `json:"tradesCreated,omitempty"`
	TradesUpdated int `json:"tradesUpdated,omitempty"`
	TradesSkipped int `json:"tradesSkipped,omitempty"`
}

// EventsWebhookHandler is the HMAC ingestion endpoint. The signature covers
// the exact raw bytes received, so the body is captured before any parsing.
func EventsWebhookHandler(connections connectionSource, processor eventProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timestamp := r.Header.Get(headerTimestamp)
		providedSig := r.Header.Get(headerSignature)
		eventID := r.Header.Get(headerEventID)
		if timestamp == "" || providedSig == "" || eventID == "" {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation,
				"X-Timestamp, X-Signature and X-Event-Id headers are required"))
			return
		}

		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindValidation, "failed to read request body", err))
			return
		}

		var envelope webhookEnvelope
		if err := json.Unmarshal(rawBody, &envelope); err != nil {
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindValidation, "invalid JSON body", err))
			return
		}
		if envelope.Source == "" {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation, "source is required"))
			return
		}

		conn, err := connections.FindBySource(r.Context(), envelope.Source)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}
		if conn == nil {
			// No secret for this source, so nothing could have signed it.
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "unknown source").
				WithContext("source", envelope.Source))
			return
		}

		if err := signature.Verify(conn.SharedSecret, timestamp, rawBody, providedSig, time.Now()); err != nil {
			logger.WithFields(map[string]interface{}{
				"source":   envelope.Source,
				"event_id": eventID,
			}).WithError(err).Warn("Webhook signature rejected")
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindAuthentication, "signature verification failed", err))
			return
		}

		if !conn.Active {
			apperr.WriteJSON(w, apperr.New(apperr.KindNotFound, "no active connection for source").
				WithContext("source", envelope.Source))
			return
		}

		connectionID := envelope.ConnectionID
		if connectionID == nil {
			connectionID = &conn.ID
		}

		result, err := processor.Process(r.Context(), conn.UserID, &ingest.InboundEvent{
			EventID:      eventID,
			EventType:    envelope.EventType,
			Source:       envelope.Source,
			ConnectionID: connectionID,
			Provider:     envelope.Provider,
			Trade:        envelope.Trade,
			Trades:       envelope.Trades,
			Snapshot:     envelope.Snapshot,
			Signal:       envelope.Signal,
		})
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}

		resp := webhookResponse{OK: true, Status: "OK"}
		if result.Duplicate {
			resp.Status = "DUPLICATE"
		} else {
			resp.TradesCreated = result.Created
			resp.TradesUpdated = result.Updated
			resp.TradesSkipped = result.Skipped
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// DefaultEventsWebhookHandler wires the handler to the production stack.
func DefaultEventsWebhookHandler(processor eventProcessor) http.HandlerFunc {
	return EventsWebhookHandler(repository.NewConnectionRepository(), processor)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
