package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/auth"
	"tradesync/src/copytrade"
)

type copyExecutor interface {
	Execute(ctx context.Context, userID uint, req *copytrade.Request) (*copytrade.Result, error)
}

// CopyExecuteHandler runs one copy-trade execution for the session user.
func CopyExecuteHandler(engine copyExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			apperr.WriteJSON(w, apperr.New(apperr.KindAuthentication, "Unauthorized"))
			return
		}

		var req copytrade.Request
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			logger.WithError(err).Warn("invalid copy execute payload")
			apperr.WriteJSON(w, apperr.Wrap(apperr.KindValidation, "invalid payload", err))
			return
		}
		if req.SourceTradeID == 0 || req.CopyParamsID == 0 {
			apperr.WriteJSON(w, apperr.New(apperr.KindValidation,
				"sourceTradeId and copyParamsId are required"))
			return
		}

		result, err := engine.Execute(r.Context(), user.ID, &req)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
