package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/auth"
	"tradesync/src/model"
	"tradesync/src/routing"
)

type signalSource interface {
	FindByIDAndUser(ctx context.Context, userID uint, id uint) (*model.Signal, error)
}

type signalRouter interface {
	RouteAndSettle(ctx context.Context, userID uint, signal *model.Signal) (*routing.RouteResult, error)
}

type routeSignalPayload struct {
	SignalID uint `json:"signal_id"`
}

// RouteSignalHandler triggers a routing pass over one signal, typically for
// signals no rule matched at ingestion time.
func RouteSignalHandler(signals signalSource, engine signalRouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "Unauthorized"))
			return
		}

		var payload routeSignalPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid route signal payload")
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindValidation, "invalid payload", err))
			return
		}
		if payload.SignalID == 0 {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation, "signal_id is required"))
			return
		}

		signal, err := signals.FindByIDAndUser(r.Context(), user.ID, payload.SignalID)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}
		if signal == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindNotFound, "signal not found"))
			return
		}

		result, err := engine.RouteAndSettle(r.Context(), user.ID, signal)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
