package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"bestea_pos/internal/api"
	"bestea_pos/internal/pos"
	"bestea_pos/internal/shift"
	"bestea_pos/internal/store"

	"go.uber.org/zap"
)

// RetryPolicy is deliberately explicit: failed items stay queued and are
// retried on every trigger, without backoff. For a low-volume register
// queue that is the right trade; a capped backoff can be swapped in here
// without touching drain semantics.
type RetryPolicy struct {
	Backoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{}
}

// Report is the aggregate outcome of one sync pass, surfaced to the
// register UI. Skipped means the pass never ran (offline or one already
// in flight).
type Report struct {
	Synced  int       `json:"synced"`
	Failed  int       `json:"failed"`
	Dropped int       `json:"dropped"`
	Pending int       `json:"pending"`
	Skipped bool      `json:"skipped"`
	At      time.Time `json:"at"`
}

// Engine drains the durable queue against the backend. One pass at a time;
// per-item isolation so a bad item never blocks the rest. Replays may hit
// the server twice if the process dies between a successful write and the
// local remove: transaction payloads carry a stable clientRef for the
// backend to dedupe on, and the rare duplicate insert for other kinds is
// an accepted residual risk.
type Engine struct {
	mu         sync.Mutex
	syncing    bool
	online     bool
	lastSynced time.Time

	store  *store.Store
	client *api.Client
	shift  *shift.Manager
	policy RetryPolicy
	logger *zap.Logger
}

func NewEngine(st *store.Store, client *api.Client, shiftMgr *shift.Manager, policy RetryPolicy, logger *zap.Logger) *Engine {
	return &Engine{
		store:  st,
		client: client,
		shift:  shiftMgr,
		policy: policy,
		logger: logger.Named("syncer"),
	}
}

// SetOnline is fed by the connectivity monitor. A pass started while
// offline is a no-op; in-flight calls that lose the link simply fail and
// their items stay queued.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.online = online
}

func (e *Engine) LastSynced() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSynced
}

func (e *Engine) Syncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// SyncOnce runs one full drain pass over a snapshot of the pending queue,
// FIFO within each kind. Success removes the item; failure leaves it for
// the next trigger; a structurally invalid item is dropped immediately so
// it cannot poison the queue forever.
func (e *Engine) SyncOnce(ctx context.Context) (Report, error) {
	e.mu.Lock()
	if e.syncing || !e.online {
		e.mu.Unlock()
		return Report{Skipped: true}, nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	var rep Report
	refreshNeeded := false

	for _, kind := range pos.QueueKinds {
		items, err := e.store.ListPending(kind)
		if err != nil {
			return rep, err
		}
		for _, it := range items {
			if verr := it.Validate(); verr != nil {
				e.logger.Warn("dropping invalid queued item",
					zap.String("id", it.ID),
					zap.String("kind", string(it.Kind)),
					zap.Error(verr))
				if err := e.store.Remove(it.ID); err != nil {
					return rep, err
				}
				rep.Dropped++
				continue
			}

			if err := e.replay(ctx, it); err != nil {
				rep.Failed++
				e.logger.Warn("replay failed, item stays queued",
					zap.String("id", it.ID),
					zap.String("kind", string(it.Kind)),
					zap.Error(err))
				if e.policy.Backoff > 0 {
					time.Sleep(e.policy.Backoff)
				}
				continue
			}

			if err := e.store.Remove(it.ID); err != nil {
				return rep, err
			}
			rep.Synced++
			// only items belonging to the live session move its totals
			if sid := itemSessionID(it); sid != "" && sid == e.shift.SessionID() {
				refreshNeeded = true
			}
		}
	}

	pending, err := e.store.PendingCount()
	if err != nil {
		return rep, err
	}
	rep.Pending = pending
	rep.At = time.Now().UTC()

	e.mu.Lock()
	e.lastSynced = rep.At
	e.mu.Unlock()

	if refreshNeeded {
		if err := e.shift.Refresh(ctx); err != nil {
			// refresh is best-effort; totals self-heal on the next pass
			e.logger.Warn("post-sync shift refresh failed", zap.Error(err))
		}
	}

	e.logger.Info("sync pass finished",
		zap.Int("synced", rep.Synced),
		zap.Int("failed", rep.Failed),
		zap.Int("dropped", rep.Dropped),
		zap.Int("pending", rep.Pending))
	return rep, nil
}

func itemSessionID(it pos.QueueItem) string {
	switch {
	case it.Kind == pos.KindTransaction && it.Payload.Transaction != nil:
		return it.Payload.Transaction.ShiftSessionID
	case it.Kind == pos.KindExpense && it.Payload.Expense != nil:
		return it.Payload.Expense.ShiftSessionID
	}
	return ""
}

func (e *Engine) replay(ctx context.Context, it pos.QueueItem) error {
	switch it.Kind {
	case pos.KindTransaction:
		tx := *it.Payload.Transaction
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = it.EnqueuedAt
		}
		_, err := e.client.WriteTransaction(ctx, tx)
		return err
	case pos.KindAttendance:
		ev := *it.Payload.Attendance
		if ev.At.IsZero() {
			ev.At = it.EnqueuedAt
		}
		return e.client.WriteAttendance(ctx, ev)
	case pos.KindExpense:
		exp := *it.Payload.Expense
		if exp.RecordedAt.IsZero() {
			exp.RecordedAt = it.EnqueuedAt
		}
		_, err := e.client.WriteExpense(ctx, exp)
		return err
	default:
		return errors.New("syncer: unknown queue kind " + string(it.Kind))
	}
}
