package register

import (
	"context"
	"time"

	"bestea_pos/internal/api"
	"bestea_pos/internal/config"
	"bestea_pos/internal/pos"
	"bestea_pos/internal/shift"
	"bestea_pos/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is what the register UI calls. Every write follows the same
// shape: validate, attempt the server, and on a transport failure fall
// back to the durable queue with an optimistic session update. Validation
// and conflict errors are never queued; a dead network never blocks a
// sale.
type Service struct {
	client   *api.Client
	store    *store.Store
	shift    *shift.Manager
	branchID string
	logger   *zap.Logger
}

func NewService(cfg config.Config, client *api.Client, st *store.Store, shiftMgr *shift.Manager, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		store:    st,
		shift:    shiftMgr,
		branchID: cfg.BranchID,
		logger:   logger.Named("register"),
	}
}

// Checkout completes a sale. The returned bool reports whether the write
// was queued for later replay instead of confirmed by the server.
func (s *Service) Checkout(ctx context.Context, tx pos.Transaction) (pos.Transaction, bool, error) {
	open, session := s.shift.Snapshot()
	if !open {
		return pos.Transaction{}, false, pos.ErrNoOpenShift
	}

	if tx.ClientRef == "" {
		tx.ClientRef = uuid.NewString()
	}
	if tx.BranchID == "" {
		tx.BranchID = s.branchID
	}
	if tx.ShiftSessionID == "" {
		tx.ShiftSessionID = session.ID
	}
	if tx.Status == "" {
		tx.Status = "completed"
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	item := pos.QueueItem{Kind: pos.KindTransaction, Payload: pos.QueuePayload{Transaction: &tx}}
	if err := item.Validate(); err != nil {
		return pos.Transaction{}, false, err
	}

	confirmed, err := s.client.WriteTransaction(ctx, tx)
	if err == nil {
		if err := s.shift.RecordTransaction(confirmed); err != nil {
			return pos.Transaction{}, false, err
		}
		return confirmed, false, nil
	}
	if !pos.IsNetwork(err) {
		return pos.Transaction{}, false, err
	}

	if _, qerr := s.store.Enqueue(item); qerr != nil {
		// not durably queued; the sale must not silently vanish
		return pos.Transaction{}, false, qerr
	}
	if err := s.shift.RecordTransaction(tx); err != nil {
		return pos.Transaction{}, false, err
	}
	s.logger.Info("transaction queued offline",
		zap.String("client_ref", tx.ClientRef),
		zap.Int64("total", tx.TotalAmount))
	return tx, true, nil
}

// RecordExpense lowers expected cash immediately; the server write queues
// when the link is down.
func (s *Service) RecordExpense(ctx context.Context, category string, amount int64, description string, employee pos.Employee) (pos.Expense, bool, error) {
	open, session := s.shift.Snapshot()
	if !open {
		return pos.Expense{}, false, pos.ErrNoOpenShift
	}

	exp := pos.Expense{
		Category:       category,
		Amount:         amount,
		Description:    description,
		BranchID:       s.branchID,
		RecordedBy:     employee.ID,
		RecordedByName: employee.Name,
		ShiftSessionID: session.ID,
		RecordedAt:     time.Now().UTC(),
	}

	item := pos.QueueItem{Kind: pos.KindExpense, Payload: pos.QueuePayload{Expense: &exp}}
	if err := item.Validate(); err != nil {
		return pos.Expense{}, false, err
	}

	confirmed, err := s.client.WriteExpense(ctx, exp)
	if err == nil {
		if err := s.shift.RecordExpense(confirmed); err != nil {
			return pos.Expense{}, false, err
		}
		return confirmed, false, nil
	}
	if !pos.IsNetwork(err) {
		return pos.Expense{}, false, err
	}

	if _, qerr := s.store.Enqueue(item); qerr != nil {
		return pos.Expense{}, false, qerr
	}
	if err := s.shift.RecordExpense(exp); err != nil {
		return pos.Expense{}, false, err
	}
	s.logger.Info("expense queued offline", zap.Int64("amount", amount))
	return exp, true, nil
}

// Attendance carries no session totals; it only needs the durable replay
// path.
func (s *Service) RecordAttendance(ctx context.Context, action pos.AttendanceAction, employee pos.Employee, shiftName string) (bool, error) {
	ev := pos.AttendanceEvent{
		Action:     action,
		EmployeeID: employee.ID,
		BranchID:   s.branchID,
		Shift:      shiftName,
		At:         time.Now().UTC(),
	}

	item := pos.QueueItem{Kind: pos.KindAttendance, Payload: pos.QueuePayload{Attendance: &ev}}
	if err := item.Validate(); err != nil {
		return false, err
	}

	err := s.client.WriteAttendance(ctx, ev)
	if err == nil {
		return false, nil
	}
	if !pos.IsNetwork(err) {
		return false, err
	}

	if _, qerr := s.store.Enqueue(item); qerr != nil {
		return false, qerr
	}
	s.logger.Info("attendance queued offline",
		zap.String("action", string(action)),
		zap.String("employee_id", employee.ID))
	return true, nil
}

func (s *Service) OpenShift(ctx context.Context, initialCash int64, employee pos.Employee) (pos.Session, error) {
	return s.shift.Open(ctx, initialCash, employee, s.branchID)
}

// ResumeShift attaches to a session reported active by the server,
// typically the one carried inside the ConflictError from OpenShift.
func (s *Service) ResumeShift(session pos.Session) error {
	return s.shift.Resume(session)
}

func (s *Service) CloseShift(ctx context.Context, actualCash int64, employee pos.Employee, notes string) (int64, error) {
	return s.shift.Close(ctx, actualCash, employee, notes)
}

func (s *Service) Shift() (bool, pos.Session) {
	return s.shift.Snapshot()
}
