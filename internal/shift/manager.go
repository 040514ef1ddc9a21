package shift

import (
	"context"
	"errors"
	"sync"
	"time"

	"bestea_pos/internal/api"
	"bestea_pos/internal/pos"
	"bestea_pos/internal/store"

	"go.uber.org/zap"
)

// Manager owns the single shift session for this device: an optimistic
// local projection persisted on every mutation, reconciled against the
// server-authoritative snapshot after successful syncs. Two states, Open
// and Closed; recording against a closed session is a no-op.
type Manager struct {
	mu      sync.Mutex
	open    bool
	session pos.Session

	store  *store.Store
	client *api.Client
	logger *zap.Logger
}

func NewManager(st *store.Store, client *api.Client, logger *zap.Logger) *Manager {
	m := &Manager{
		store:  st,
		client: client,
		logger: logger.Named("shift"),
	}

	open, session, err := st.LoadShift()
	switch {
	case err == nil:
		m.open = open
		m.session = session
		if open {
			m.logger.Info("restored open shift from snapshot",
				zap.String("session_id", session.ID),
				zap.Int64("expected_cash", session.ExpectedCash))
		}
	case errors.Is(err, store.ErrNotFound):
		// fresh device, nothing to restore
	default:
		m.logger.Warn("failed to restore shift snapshot", zap.Error(err))
	}
	return m
}

// Open starts a new shift. It refuses to run offline: the session id must
// come from the server or later offline expenses would reference an id
// that does not exist yet. When the branch already has an active session
// the caller gets it back inside a ConflictError and can resume instead.
func (m *Manager) Open(ctx context.Context, initialCash int64, employee pos.Employee, branchID string) (pos.Session, error) {
	if initialCash < 0 {
		return pos.Session{}, &pos.ValidationError{Field: "initialCash", Reason: "must not be negative"}
	}

	m.mu.Lock()
	if m.open {
		active := m.session
		m.mu.Unlock()
		return pos.Session{}, &pos.ConflictError{Message: "shift already open on this device", Active: &active}
	}
	m.mu.Unlock()

	active, err := m.client.ActiveSession(ctx, branchID)
	if err != nil {
		return pos.Session{}, err
	}
	if active != nil {
		return pos.Session{}, &pos.ConflictError{Message: "branch already has an active shift", Active: active}
	}

	created, err := m.client.OpenSession(ctx, branchID, employee.ID, initialCash)
	if err != nil {
		return pos.Session{}, err
	}

	session := pos.Session{
		ID:           created.ID,
		BranchID:     branchID,
		OpenedBy:     &employee,
		StartTime:    time.Now().UTC(),
		InitialCash:  initialCash,
		ExpectedCash: initialCash,
	}
	if !created.StartTime.IsZero() {
		session.StartTime = created.StartTime
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.session = session
	if err := m.persistLocked(); err != nil {
		return pos.Session{}, err
	}
	m.logger.Info("shift opened",
		zap.String("session_id", session.ID),
		zap.String("branch_id", branchID),
		zap.Int64("initial_cash", initialCash))
	return session, nil
}

// Resume attaches this device to a session already open on the server,
// seeding totals from the server record instead of zero.
func (m *Manager) Resume(session pos.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.EndTime = nil
	session.ActualCash = nil
	session.Discrepancy = nil
	session.ExpectedCash = session.InitialCash + session.TotalCash - session.TotalExpenses
	if session.StartTime.IsZero() {
		session.StartTime = time.Now().UTC()
	}

	m.open = true
	m.session = session
	if err := m.persistLocked(); err != nil {
		return err
	}
	m.logger.Info("shift resumed", zap.String("session_id", session.ID))
	return nil
}

// RecordTransaction folds one confirmed or optimistic sale into the running
// totals. No-op while closed.
func (m *Manager) RecordTransaction(tx pos.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil
	}

	switch tx.PaymentMethod {
	case pos.PaymentCash:
		m.session.TotalCash += tx.TotalAmount
	case pos.PaymentQRIS:
		m.session.TotalQRIS += tx.TotalAmount
	}
	m.session.Transactions = append([]pos.Transaction{tx}, m.session.Transactions...)
	m.recomputeLocked()
	return m.persistLocked()
}

// RecordExpense appends an expense and lowers expected cash. No-op while
// closed.
func (m *Manager) RecordExpense(exp pos.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil
	}

	m.session.TotalExpenses += exp.Amount
	m.session.Expenses = append([]pos.Expense{exp}, m.session.Expenses...)
	m.recomputeLocked()
	return m.persistLocked()
}

// Close ends the shift and reports the signed discrepancy between counted
// and expected cash. The discrepancy is never clamped; a shortage is an
// operational signal, not an error. Calling Close on an already-closed
// session returns the recorded discrepancy without another server write.
func (m *Manager) Close(ctx context.Context, actualCash int64, employee pos.Employee, notes string) (int64, error) {
	if actualCash < 0 {
		return 0, &pos.ValidationError{Field: "actualCash", Reason: "must not be negative"}
	}

	m.mu.Lock()
	if !m.open {
		if m.session.Discrepancy != nil {
			d := *m.session.Discrepancy
			m.mu.Unlock()
			return d, nil
		}
		m.mu.Unlock()
		return 0, pos.ErrNoOpenShift
	}
	sessionID := m.session.ID
	expected := m.session.ExpectedCash
	m.mu.Unlock()

	if sessionID != "" {
		err := m.client.CloseSession(ctx, sessionID, employee.ID, actualCash, expected, notes)
		if err != nil && !pos.IsNetwork(err) {
			return 0, err
		}
		if err != nil {
			// Close locally regardless; the register must not stay stuck
			// behind a dead link. The server record is settled on the next
			// manual reconciliation.
			m.logger.Warn("server close failed, closing locally", zap.Error(err))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	discrepancy := actualCash - m.session.ExpectedCash
	m.session.EndTime = &now
	m.session.ActualCash = &actualCash
	m.session.Discrepancy = &discrepancy
	m.session.ClosedBy = &employee
	m.session.Notes = notes
	m.open = false

	if err := m.store.ClearShift(); err != nil {
		m.logger.Warn("failed to clear shift snapshot", zap.Error(err))
	}
	m.logger.Info("shift closed",
		zap.String("session_id", sessionID),
		zap.Int64("actual_cash", actualCash),
		zap.Int64("discrepancy", discrepancy))
	return discrepancy, nil
}

// Refresh overwrites the local derived fields with the server's
// authoritative totals and lists. Local-only queued items must not be
// lost: server totals win for confirmed items, pending items for this
// session are added back on top.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	sessionID := m.session.ID
	isOpen := m.open
	m.mu.Unlock()
	if !isOpen || sessionID == "" {
		return nil
	}

	detail, err := m.client.SessionDetail(ctx, sessionID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open || m.session.ID != sessionID {
		// closed or swapped while the fetch was in flight
		return nil
	}

	// read pending under the lock: an item enqueued while the fetch was in
	// flight must land in this merge, not wait for the next refresh
	pendingTx, err := m.pendingTransactions(sessionID)
	if err != nil {
		return err
	}
	pendingExp, err := m.pendingExpenses(sessionID)
	if err != nil {
		return err
	}

	m.session.TotalCash = detail.TotalCash
	m.session.TotalQRIS = detail.TotalQRIS
	m.session.TotalExpenses = detail.TotalExpense
	m.session.Transactions = detail.Transactions
	m.session.Expenses = detail.Expenses

	for _, tx := range pendingTx {
		switch tx.PaymentMethod {
		case pos.PaymentCash:
			m.session.TotalCash += tx.TotalAmount
		case pos.PaymentQRIS:
			m.session.TotalQRIS += tx.TotalAmount
		}
		m.session.Transactions = append([]pos.Transaction{tx}, m.session.Transactions...)
	}
	for _, exp := range pendingExp {
		m.session.TotalExpenses += exp.Amount
		m.session.Expenses = append([]pos.Expense{exp}, m.session.Expenses...)
	}

	m.recomputeLocked()
	if err := m.persistLocked(); err != nil {
		return err
	}
	m.logger.Debug("shift refreshed from server",
		zap.String("session_id", sessionID),
		zap.Int64("expected_cash", m.session.ExpectedCash),
		zap.Int("pending_tx", len(pendingTx)))
	return nil
}

// Snapshot returns the open flag and a copy of the session for display.
func (m *Manager) Snapshot() (bool, pos.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open, m.session
}

func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ID
}

func (m *Manager) pendingTransactions(sessionID string) ([]pos.Transaction, error) {
	items, err := m.store.ListPending(pos.KindTransaction)
	if err != nil {
		return nil, err
	}
	var out []pos.Transaction
	for _, it := range items {
		if it.Payload.Transaction != nil && it.Payload.Transaction.ShiftSessionID == sessionID {
			out = append(out, *it.Payload.Transaction)
		}
	}
	return out, nil
}

func (m *Manager) pendingExpenses(sessionID string) ([]pos.Expense, error) {
	items, err := m.store.ListPending(pos.KindExpense)
	if err != nil {
		return nil, err
	}
	var out []pos.Expense
	for _, it := range items {
		if it.Payload.Expense != nil && it.Payload.Expense.ShiftSessionID == sessionID {
			out = append(out, *it.Payload.Expense)
		}
	}
	return out, nil
}

func (m *Manager) recomputeLocked() {
	m.session.ExpectedCash = m.session.InitialCash + m.session.TotalCash - m.session.TotalExpenses
}

func (m *Manager) persistLocked() error {
	return m.store.SaveShift(m.open, m.session)
}
