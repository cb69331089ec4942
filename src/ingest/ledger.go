package ingest

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradesync/src/model"
	"tradesync/src/repository"
)

// Admission is the outcome of the idempotency check.
type Admission int

const (
	// Admitted: first delivery, a pending ledger row was created.
	Admitted Admission = iota
	// Readmitted: a redelivery of an event whose earlier processing never
	// reached a terminal state (stale pending, or failed); the row was
	// re-armed and processing runs again.
	Readmitted
	// Duplicate: the event was already processed (or is being processed);
	// the caller returns success without side effects.
	Duplicate
)

// DefaultPendingRetryWindow is how long a pending row blocks redeliveries
// before it is considered crashed and retryable.
const DefaultPendingRetryWindow = 15 * time.Minute

// Ledger is the idempotency ledger: it admits each (owner, event id) at most
// once, leaning on the store's unique constraint for atomicity.
type Ledger struct {
	logs               *repository.EventLogRepository
	PendingRetryWindow time.Duration
	now                func() time.Time
}

func NewLedger(logs *repository.EventLogRepository) *Ledger {
	return &Ledger{
		logs:               logs,
		PendingRetryWindow: DefaultPendingRetryWindow,
		now:                time.Now,
	}
}

// Admit records the inbound event and classifies the delivery. On Admitted or
// Readmitted the returned row is pending and the caller must finalize it.
func (l *Ledger) Admit(ctx context.Context, userID uint, ev *InboundEvent) (*model.SyncEventLog, Admission, error) {
	entry := &model.SyncEventLog{
		UserID:    userID,
		EventID:   ev.EventID,
		EventType: ev.EventType,
		Source:    ev.Source,
		Status:    model.EventLogStatusPending,
	}

	admitted, existing, err := l.logs.InsertIfAbsent(ctx, entry)
	if err != nil {
		return nil, Duplicate, err
	}
	if admitted {
		return entry, Admitted, nil
	}

	switch existing.Status {
	case model.EventLogStatusFailed:
		// Failed events are always retryable on redelivery.
		if err := l.logs.Rearm(ctx, existing.ID); err != nil {
			return nil, Duplicate, err
		}
		return existing, Readmitted, nil

	case model.EventLogStatusPending:
		age := l.now().Sub(existing.UpdatedAt)
		if age > l.PendingRetryWindow {
			// The original processing crashed before reaching a terminal
			// state; a silent drop here would lose the event forever.
			if err := l.logs.Rearm(ctx, existing.ID); err != nil {
				return nil, Duplicate, err
			}
			return existing, Readmitted, nil
		}
		logger.WithFields(map[string]interface{}{
			"event_id": ev.EventID,
			"age":      age.String(),
		}).Info("Duplicate delivery while original is still in flight")
		return existing, Duplicate, nil

	default:
		return existing, Duplicate, nil
	}
}
