package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/apperr"
	"tradesync/src/model"
	"tradesync/src/parser"
	"tradesync/src/repository"
)

// SignalSink receives signals the normalizer accepted, typically the routing
// rule engine. Sink failures are the sink's problem: ingestion already
// succeeded by the time it runs.
type SignalSink interface {
	HandleNewSignal(ctx context.Context, signal *model.Signal)
}

// Processor normalizes inbound events into canonical records. One instance is
// shared by all handlers; all state lives in the store.
type Processor struct {
	ledger    *Ledger
	trades    *repository.TradeRepository
	snapshots *repository.SnapshotRepository
	signals   *repository.SignalRepository
	sink      SignalSink
	now       func() time.Time
}

func NewProcessor(
	ledger *Ledger,
	trades *repository.TradeRepository,
	snapshots *repository.SnapshotRepository,
	signals *repository.SignalRepository,
	sink SignalSink,
) *Processor {
	return &Processor{
		ledger:    ledger,
		trades:    trades,
		snapshots: snapshots,
		signals:   signals,
		sink:      sink,
		now:       time.Now,
	}
}

// Result reports one event's processing outcome.
type Result struct {
	Duplicate bool
	Log       *model.SyncEventLog
	Signal    *model.Signal

	Created int
	Updated int
	Skipped int
}

// Process runs the full ingestion pipeline for one inbound event: admission
// through the idempotency ledger, normalization, ledger finalization, and the
// signal sink. A validation error before admission fails the whole request;
// per-trade errors after admission only increment the skipped counter.
func (p *Processor) Process(ctx context.Context, userID uint, ev *InboundEvent) (*Result, error) {
	if ev.EventID == "" {
		return nil, apperr.New(apperr.KindValidation, "eventId is required")
	}
	if ev.Source == "" {
		return nil, apperr.New(apperr.KindValidation, "source is required")
	}
	switch ev.EventType {
	case EventTypeTradeUpsert, EventTypeSnapshotUpsert, EventTypeSignal:
	default:
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown event type: %s", ev.EventType)).
			WithContext("event_type", ev.EventType)
	}

	logRow, admission, err := p.ledger.Admit(ctx, userID, ev)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnexpected, "failed to admit event", err)
	}
	if admission == Duplicate {
		logger.WithFields(map[string]interface{}{
			"event_id":   ev.EventID,
			"event_type": ev.EventType,
			"user_id":    userID,
		}).Info("Duplicate event dropped")
		return &Result{Duplicate: true, Log: logRow}, nil
	}

	result := &Result{Log: logRow}
	var processErr error

	switch ev.EventType {
	case EventTypeTradeUpsert:
		p.processTrades(ctx, userID, ev, result)
	case EventTypeSnapshotUpsert:
		processErr = p.processSnapshot(ctx, userID, ev)
		if processErr == nil {
			result.Created++
		}
	case EventTypeSignal:
		result.Signal, processErr = p.processSignal(ctx, userID, ev)
		if processErr == nil {
			result.Created++
		}
	}

	status := model.EventLogStatusProcessed
	errMsg := ""
	if processErr != nil {
		status = model.EventLogStatusFailed
		errMsg = processErr.Error()
	}

	if err := p.ledger.logs.MarkTerminal(ctx, logRow.ID, status, result.Created, result.Updated, result.Skipped, errMsg); err != nil {
		return nil, apperr.Wrap(apperr.KindUnexpected, "failed to finalize event log", err)
	}

	if processErr != nil {
		return nil, processErr
	}

	if result.Signal != nil && p.sink != nil {
		p.sink.HandleNewSignal(ctx, result.Signal)
	}

	return result, nil
}

// processTrades upserts every trade payload of the event. A failing payload
// increments the skipped counter and the batch continues.
func (p *Processor) processTrades(ctx context.Context, userID uint, ev *InboundEvent, result *Result) {
	for _, payload := range ev.TradePayloads() {
		created, err := p.upsertTrade(ctx, userID, ev, payload)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"event_id": ev.EventID,
				"source":   ev.Source,
			}).WithError(err).Warn("Skipping trade payload")
			result.Skipped++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
}

// upsertTrade resolves the natural key and either inserts or merges. Returns
// created=true on insert.
func (p *Processor) upsertTrade(ctx context.Context, userID uint, ev *InboundEvent, payload Payload) (bool, error) {
	sourceTradeID := payload.String(aliasTradeID...)
	if sourceTradeID == "" {
		return false, fmt.Errorf("trade payload missing trade identifier")
	}

	existing, err := p.trades.FindByNaturalKey(ctx, userID, ev.Source, sourceTradeID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		trade := &model.Trade{
			UserID:        userID,
			Source:        ev.Source,
			SourceTradeID: sourceTradeID,
			ConnectionID:  ev.ConnectionID,
			RawPayload:    RawJSON(payload),
		}
		applyTradeFields(trade, payload)
		if trade.Symbol == "" {
			return false, fmt.Errorf("trade payload missing symbol")
		}
		return true, p.trades.Create(ctx, trade)
	}

	mergeTradeFields(existing, payload)
	existing.RawPayload = RawJSON(payload)
	return false, p.trades.Save(ctx, existing)
}

// applyTradeFields fills a fresh trade from the payload.
func applyTradeFields(trade *model.Trade, payload Payload) {
	trade.Symbol = strings.ToUpper(payload.String(aliasSymbol...))
	trade.Side = normalizeSide(payload.String(aliasSide...))
	trade.EntryPrice = payload.Float(aliasEntryPrice...)
	trade.EntryTime = payload.Time(aliasEntryTime...)
	trade.ExitPrice = payload.Float(aliasExitPrice...)
	trade.ExitTime = payload.Time(aliasExitTime...)
	trade.Quantity = payload.Float(aliasQuantity...)
	trade.StopLoss = payload.Float(aliasStopLoss...)
	trade.TakeProfit = payload.Float(aliasTakeProfit...)
	trade.Commission = payload.Float(aliasCommission...)
	trade.Swap = payload.Float(aliasSwap...)
	trade.Pnl = payload.Float(aliasPnl...)
	trade.TradeStatus = normalizeTradeStatus(payload, model.TradeStatusOpen)
}

// mergeTradeFields merges an incoming payload into an existing trade. Present
// fields overwrite; absent fields never null out known values. A closed trade
// never reverts to open.
func mergeTradeFields(trade *model.Trade, payload Payload) {
	if symbol := payload.String(aliasSymbol...); symbol != "" {
		trade.Symbol = strings.ToUpper(symbol)
	}
	if side := payload.String(aliasSide...); side != "" {
		trade.Side = normalizeSide(side)
	}
	if v := payload.Float(aliasEntryPrice...); v != nil {
		trade.EntryPrice = v
	}
	if v := payload.Time(aliasEntryTime...); v != nil {
		trade.EntryTime = v
	}
	if v := payload.Float(aliasExitPrice...); v != nil {
		trade.ExitPrice = v
	}
	if v := payload.Time(aliasExitTime...); v != nil {
		trade.ExitTime = v
	}
	if v := payload.Float(aliasQuantity...); v != nil {
		trade.Quantity = v
	}
	if v := payload.Float(aliasStopLoss...); v != nil {
		trade.StopLoss = v
	}
	if v := payload.Float(aliasTakeProfit...); v != nil {
		trade.TakeProfit = v
	}
	if v := payload.Float(aliasCommission...); v != nil {
		trade.Commission = v
	}
	if v := payload.Float(aliasSwap...); v != nil {
		trade.Swap = v
	}
	if v := payload.Float(aliasPnl...); v != nil {
		trade.Pnl = v
	}

	if trade.TradeStatus != model.TradeStatusClosed {
		trade.TradeStatus = normalizeTradeStatus(payload, trade.TradeStatus)
	}
}

// normalizeTradeStatus derives open/closed from the status alias or, failing
// that, from the presence of exit data.
func normalizeTradeStatus(payload Payload, fallback string) string {
	status := strings.ToLower(payload.String(aliasStatus...))
	switch {
	case strings.Contains(status, "clos"):
		return model.TradeStatusClosed
	case status == "open" || strings.Contains(status, "open"):
		return model.TradeStatusOpen
	}
	if payload.Float(aliasExitPrice...) != nil || payload.Time(aliasExitTime...) != nil {
		return model.TradeStatusClosed
	}
	return fallback
}

func normalizeSide(side string) string {
	s := strings.ToLower(strings.TrimSpace(side))
	switch {
	case strings.HasPrefix(s, "b"), s == "long":
		return model.TradeSideBuy
	case strings.HasPrefix(s, "s"), s == "short":
		return model.TradeSideSell
	}
	return s
}

func (p *Processor) processSnapshot(ctx context.Context, userID uint, ev *InboundEvent) error {
	payload := ev.Snapshot
	if payload == nil {
		return fmt.Errorf("snapshot payload is required")
	}

	snapshotAt := p.now().UTC()
	if t := payload.Time(aliasSnapshotAt...); t != nil {
		snapshotAt = *t
	}

	return p.snapshots.Create(ctx, &model.AccountSnapshot{
		UserID:       userID,
		ConnectionID: ev.ConnectionID,
		Source:       ev.Source,
		Balance:      payload.Float(aliasBalance...),
		Equity:       payload.Float(aliasEquity...),
		Drawdown:     payload.Float(aliasDrawdown...),
		MarginUsed:   payload.Float(aliasMarginUsed...),
		SnapshotAt:   snapshotAt,
		RawPayload:   RawJSON(payload),
	})
}

func (p *Processor) processSignal(ctx context.Context, userID uint, ev *InboundEvent) (*model.Signal, error) {
	payload := ev.Signal
	if payload == nil {
		return nil, fmt.Errorf("signal payload is required")
	}

	signal := BuildSignal(userID, ev.Provider, payload)
	if signal.Symbol == "" {
		return nil, apperr.New(apperr.KindValidation, "signal payload missing symbol")
	}
	if signal.Action == "" {
		return nil, apperr.New(apperr.KindValidation, "signal payload missing action")
	}

	if err := p.signals.Create(ctx, signal); err != nil {
		return nil, err
	}
	return signal, nil
}

// BuildSignal maps a signal payload into the canonical record. When the
// payload carries only free text, the text parser fills in what it can.
func BuildSignal(userID uint, provider string, payload Payload) *model.Signal {
	signal := &model.Signal{
		UserID:      userID,
		Symbol:      strings.ToUpper(payload.String(aliasSymbol...)),
		Action:      strings.ToUpper(payload.String("action", "side")),
		Price:       payload.Float(aliasSignalPrice...),
		StopLoss:    payload.Float(aliasStopLoss...),
		TakeProfits: payload.FloatSlice(aliasTakeProfits...),
		Provider:    payload.String(aliasProvider...),
		Status:      model.SignalStatusNew,
		RawData:     RawJSON(payload),
	}
	if signal.TakeProfits == nil {
		if tp := payload.Float(aliasTakeProfit...); tp != nil {
			signal.TakeProfits = []float64{*tp}
		}
	}
	if c := payload.Int(aliasConfidence...); c != nil {
		signal.Confidence = *c
	} else {
		signal.Confidence = 50
	}
	if signal.Provider == "" {
		signal.Provider = provider
	}

	if body := payload.String("body", "text", "message"); body != "" && (signal.Symbol == "" || signal.Action == "") {
		parsed := parser.ParseText(body, signal.Provider)
		if signal.Symbol == "" {
			signal.Symbol = parsed.Symbol
		}
		if signal.Action == "" {
			signal.Action = parsed.Action
		}
		if signal.Price == nil {
			signal.Price = parsed.Entry
		}
		if signal.StopLoss == nil {
			signal.StopLoss = parsed.StopLoss
		}
		if signal.TakeProfits == nil {
			signal.TakeProfits = parsed.TakeProfits
		}
		signal.Provider = parsed.Provider
	}

	return signal
}
