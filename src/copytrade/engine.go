package copytrade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/ingest"
	"tradesync/src/model"
	"tradesync/src/repository"
	"tradesync/src/risk"
	"tradesync/src/utils"
)

// CopySource identifies the re-emitted trades in the canonical store.
const CopySource = "copy-engine"

// Request is one copy-execution attempt.
type Request struct {
	SourceTradeID uint `json:"sourceTradeId"`
	CopyParamsID  uint `json:"copyParamsId"`

	// Confirmed acknowledges a configuration with require_confirmation set.
	Confirmed bool `json:"confirmed,omitempty"`
}

// Result is returned to the caller after a successful execution.
type Result struct {
	CopiedTradeID   uint          `json:"copiedTradeId"`
	TargetTradeID   string        `json:"targetTradeId"`
	Status          string        `json:"status"`
	ExecutionTimeMs int64         `json:"executionTimeMs"`
	SlippagePips    float64       `json:"slippagePips"`
	OrderPayload    *OrderRequest `json:"orderPayload"`
}

// Engine mirrors a source trade onto a target connection under the user's
// copy configuration. All cross-request state (daily counters, attempt
// records) lives in the store.
type Engine struct {
	params        *repository.CopyParamsRepository
	trades        *repository.TradeRepository
	copied        *repository.CopiedTradeRepository
	notifications *repository.NotificationRepository
	broker        BrokerAdapter
	processor     *ingest.Processor
	exceptions    *repository.ExceptionRepository

	now func() time.Time
}

func NewEngine(
	params *repository.CopyParamsRepository,
	trades *repository.TradeRepository,
	copied *repository.CopiedTradeRepository,
	notifications *repository.NotificationRepository,
	broker BrokerAdapter,
	processor *ingest.Processor,
) *Engine {
	return &Engine{
		params:        params,
		trades:        trades,
		copied:        copied,
		notifications: notifications,
		broker:        broker,
		processor:     processor,
		now:           time.Now,
	}
}

// WithExceptions enables persisted exception capture for broker failures.
func (e *Engine) WithExceptions(exceptions *repository.ExceptionRepository) *Engine {
	clone := *e
	clone.exceptions = exceptions
	return &clone
}

// WithClock overrides the engine clock, mainly for daily-limit tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// Execute validates, sizes, and executes one copy. Checks short-circuit in a
// fixed order; nothing is persisted until every policy check has passed.
func (e *Engine) Execute(ctx context.Context, userID uint, req *Request) (*Result, error) {
	now := e.now()

	params, err := e.params.FindByIDAndUser(ctx, userID, req.CopyParamsID)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, apperr.New(apperr.KindNotFound, "copy parameters not found")
	}
	if !params.Enabled {
		return nil, apperr.New(apperr.KindPolicy, "copy configuration is disabled")
	}
	if params.RequireConfirmation && !req.Confirmed {
		return nil, apperr.New(apperr.KindPolicy, "copy configuration requires confirmation")
	}

	if risk.DailyLimitReached(params, now) {
		return nil, apperr.New(apperr.KindPolicy, "daily copy limit reached").
			WithStatus(http.StatusTooManyRequests).
			WithContext("max_daily_trades", *params.MaxDailyTrades).
			WithContext("trades_copied_today", risk.CopiesToday(params, now))
	}

	trade, err := e.trades.FindByIDAndUser(ctx, userID, req.SourceTradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, apperr.New(apperr.KindNotFound, "source trade not found")
	}

	if !risk.SymbolAllowed(trade.Symbol, params.AllowedSymbols, params.BlockedSymbols) {
		return nil, apperr.New(apperr.KindPolicy, "symbol is not allowed by copy configuration").
			WithContext("symbol", trade.Symbol)
	}

	if trade.Quantity == nil || *trade.Quantity <= 0 {
		return nil, apperr.New(apperr.KindValidation, "source trade has no quantity")
	}

	targetSymbol := risk.MapSymbol(trade.Symbol, params.SymbolMapping)
	order := e.buildOrder(trade, params, targetSymbol)

	payloadJSON, err := json.Marshal(order)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnexpected, "failed to serialize order", err)
	}

	attempt := &model.CopiedTrade{
		UserID:        userID,
		CopyParamsID:  params.ID,
		SourceTradeID: trade.ID,
		CopyStatus:    model.CopyStatusPending,
		OrderPayload:  string(payloadJSON),
	}
	if err := e.copied.Create(ctx, attempt); err != nil {
		return nil, err
	}

	started := e.now()
	exec, execErr := e.broker.Execute(ctx, order)
	latency := e.now().Sub(started).Milliseconds()

	if execErr != nil {
		if finErr := e.copied.Finalize(ctx, attempt.ID, model.CopyStatusFailed,
			"", 0, latency, execErr.Error()); finErr != nil {
			logger.WithError(finErr).Error("Failed to record copy failure")
		}
		if e.exceptions != nil {
			apperr.Capture(ctx, e.exceptions, "copytrade", "Execute", "error", execErr,
				map[string]interface{}{
					"copied_trade_id": attempt.ID,
					"broker":          e.broker.Name(),
					"symbol":          order.Symbol,
				})
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "broker execution failed", execErr).
			WithContext("copiedTradeId", attempt.ID)
	}

	status := model.CopyStatusExecuted
	if params.MaxSlippagePips > 0 && exec.SlippagePips > params.MaxSlippagePips {
		// Filled, but worse than the configured tolerance.
		status = model.CopyStatusPartial
	}

	if err := e.copied.Finalize(ctx, attempt.ID, status,
		exec.OrderID, exec.SlippagePips, latency, ""); err != nil {
		return nil, err
	}

	if err := e.params.RecordCopy(ctx, params.ID, utils.UTCDate(now), now); err != nil {
		return nil, err
	}

	e.reemitTradeOpened(ctx, userID, params, attempt, order, exec)
	e.notifyCopyExecuted(ctx, userID, order, exec)

	return &Result{
		CopiedTradeID:   attempt.ID,
		TargetTradeID:   exec.OrderID,
		Status:          status,
		ExecutionTimeMs: latency,
		SlippagePips:    exec.SlippagePips,
		OrderPayload:    order,
	}, nil
}

func (e *Engine) buildOrder(
	trade *model.Trade,
	params *model.CopyParameters,
	targetSymbol string,
) *OrderRequest {

	order := &OrderRequest{
		ClientOrderID: uuid.NewString(),
		Symbol:        targetSymbol,
		Side:          trade.Side,
		Quantity:      risk.TargetQuantity(*trade.Quantity, params.RiskMultiplier, params.MaxPositionSize),
		Price:         trade.EntryPrice,
	}

	if params.CopyStopLoss && trade.StopLoss != nil {
		sl := risk.OffsetPrice(*trade.StopLoss, params.AdjustSLOffsetPips, targetSymbol)
		order.StopLoss = &sl
	}
	if params.CopyTakeProfit && trade.TakeProfit != nil {
		tp := risk.OffsetPrice(*trade.TakeProfit, params.AdjustTPOffsetPips, targetSymbol)
		order.TakeProfit = &tp
	}

	return order
}

// reemitTradeOpened feeds the executed copy back into the ingestion pipeline
// so it lands in the canonical trade store like any other trade source. The
// copy itself already succeeded, so failures here are logged, not returned.
func (e *Engine) reemitTradeOpened(
	ctx context.Context,
	userID uint,
	params *model.CopyParameters,
	attempt *model.CopiedTrade,
	order *OrderRequest,
	exec *Execution,
) {
	if e.processor == nil {
		return
	}

	payload := ingest.Payload{
		"sourceTradeId": exec.OrderID,
		"symbol":        order.Symbol,
		"side":          order.Side,
		"qty":           order.Quantity,
		"status":        model.TradeStatusOpen,
	}
	if exec.FilledPrice != 0 {
		payload["openPrice"] = exec.FilledPrice
	}
	if order.StopLoss != nil {
		payload["sl"] = *order.StopLoss
	}
	if order.TakeProfit != nil {
		payload["tp"] = *order.TakeProfit
	}

	ev := &ingest.InboundEvent{
		EventID:      fmt.Sprintf("copy-%d", attempt.ID),
		EventType:    ingest.EventTypeTradeUpsert,
		Source:       CopySource,
		ConnectionID: &params.TargetConnectionID,
		Trades:       []ingest.Payload{payload},
	}

	if _, err := e.processor.Process(ctx, userID, ev); err != nil {
		logger.WithFields(map[string]interface{}{
			"copied_trade_id": attempt.ID,
			"event_id":        ev.EventID,
		}).WithError(err).Error("Failed to journal executed copy")
	}
}

func (e *Engine) notifyCopyExecuted(
	ctx context.Context,
	userID uint,
	order *OrderRequest,
	exec *Execution,
) {
	if e.notifications == nil {
		return
	}

	n := &model.Notification{
		UserID:  userID,
		Title:   fmt.Sprintf("Copied %s %s", order.Side, order.Symbol),
		Message: fmt.Sprintf("Order %s filled, qty %v", exec.OrderID, order.Quantity),
		Kind:    "copy_trade",
	}
	if err := e.notifications.Create(ctx, n); err != nil {
		logger.WithError(err).Warn("Failed to create copy notification")
	}
}
