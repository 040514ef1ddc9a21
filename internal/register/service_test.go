package register

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"bestea_pos/internal/api"
	"bestea_pos/internal/config"
	"bestea_pos/internal/pos"
	"bestea_pos/internal/shift"
	"bestea_pos/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type backend struct {
	down     int32
	throttle int32
	txWrites int32
}

func (b *backend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/transactions" || r.URL.Path == "/api/expenses" || r.URL.Path == "/api/attendance":
			if atomic.LoadInt32(&b.down) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			if atomic.LoadInt32(&b.throttle) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			if r.URL.Path == "/api/transactions" {
				atomic.AddInt32(&b.txWrites, 1)
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "t-1", "transactionCode": "#001", "status": "completed"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "x-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/shift-sessions":
			_ = json.NewEncoder(w).Encode(nil)
		case r.Method == http.MethodPost && r.URL.Path == "/api/shift-sessions":
			_ = json.NewEncoder(w).Encode(pos.Session{ID: "sess-1", StartTime: time.Now().UTC()})
		case r.Method == http.MethodPut && r.URL.Path == "/api/shift-sessions":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "closed"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{})
		}
	})
}

func newTestService(t *testing.T, b *backend) (*Service, *store.Store) {
	t.Helper()
	ts := httptest.NewServer(b.handler())
	t.Cleanup(ts.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{APIBaseURL: ts.URL, BranchID: "branch-1", Timeout: 2 * time.Second}
	client := api.NewClient(cfg, zap.NewNop())
	shiftMgr := shift.NewManager(st, client, zap.NewNop())
	return NewService(cfg, client, st, shiftMgr, zap.NewNop()), st
}

func saleOf(amount int64) pos.Transaction {
	return pos.Transaction{
		CashierID:     "emp-1",
		CashierName:   "Ayu",
		TotalAmount:   amount,
		PaymentMethod: pos.PaymentCash,
		AmountPaid:    amount,
		Items:         []pos.TransactionItem{{ProductID: "p1", ProductName: "Es Teh", Quantity: 1, Price: amount, Subtotal: amount}},
	}
}

func TestCheckoutRequiresOpenShift(t *testing.T) {
	b := &backend{}
	s, _ := newTestService(t, b)

	_, _, err := s.Checkout(context.Background(), saleOf(50000))
	assert.ErrorIs(t, err, pos.ErrNoOpenShift)
}

func TestCheckoutOnlineConfirms(t *testing.T) {
	b := &backend{}
	s, st := newTestService(t, b)
	ctx := context.Background()

	_, err := s.OpenShift(ctx, 100000, pos.Employee{ID: "emp-1", Name: "Ayu"})
	require.NoError(t, err)

	confirmed, queued, err := s.Checkout(ctx, saleOf(50000))
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, "#001", confirmed.TransactionCode)
	assert.Equal(t, "sess-1", confirmed.ShiftSessionID)
	assert.NotEmpty(t, confirmed.ClientRef)

	count, err := st.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, session := s.Shift()
	assert.Equal(t, int64(150000), session.ExpectedCash)
}

func TestCheckoutOfflineQueuesAndStaysOptimistic(t *testing.T) {
	b := &backend{}
	s, st := newTestService(t, b)
	ctx := context.Background()

	_, err := s.OpenShift(ctx, 100000, pos.Employee{ID: "emp-1", Name: "Ayu"})
	require.NoError(t, err)

	atomic.StoreInt32(&b.down, 1)
	tx, queued, err := s.Checkout(ctx, saleOf(50000))
	require.NoError(t, err) // a dead network never blocks the sale
	assert.True(t, queued)
	assert.Empty(t, tx.TransactionCode)

	count, err := st.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, session := s.Shift()
	assert.Equal(t, int64(150000), session.ExpectedCash)
	assert.Zero(t, atomic.LoadInt32(&b.txWrites))
}

func TestCheckoutRateLimitedQueues(t *testing.T) {
	b := &backend{}
	s, st := newTestService(t, b)
	ctx := context.Background()

	_, err := s.OpenShift(ctx, 100000, pos.Employee{ID: "emp-1", Name: "Ayu"})
	require.NoError(t, err)

	// sustained 429 must behave like any other dead link: queue the sale
	atomic.StoreInt32(&b.throttle, 1)
	_, queued, err := s.Checkout(ctx, saleOf(50000))
	require.NoError(t, err)
	assert.True(t, queued)

	count, err := st.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, session := s.Shift()
	assert.Equal(t, int64(150000), session.ExpectedCash)
}

func TestCheckoutValidationNeverQueues(t *testing.T) {
	b := &backend{}
	s, st := newTestService(t, b)
	ctx := context.Background()

	_, err := s.OpenShift(ctx, 100000, pos.Employee{ID: "emp-1", Name: "Ayu"})
	require.NoError(t, err)

	atomic.StoreInt32(&b.down, 1)
	bad := saleOf(50000)
	bad.TotalAmount = 0

	_, _, err = s.Checkout(ctx, bad)
	var verr *pos.ValidationError
	assert.ErrorAs(t, err, &verr)

	count, err := st.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, session := s.Shift()
	assert.Equal(t, int64(100000), session.ExpectedCash)
}

func TestExpenseOfflineLowersExpectedCash(t *testing.T) {
	b := &backend{}
	s, st := newTestService(t, b)
	ctx := context.Background()

	_, err := s.OpenShift(ctx, 100000, pos.Employee{ID: "emp-1", Name: "Ayu"})
	require.NoError(t, err)

	atomic.StoreInt32(&b.down, 1)
	exp, queued, err := s.RecordExpense(ctx, "supplies", 20000, "ice block", pos.Employee{ID: "emp-1", Name: "Ayu"})
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Equal(t, "sess-1", exp.ShiftSessionID)

	count, err := st.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, session := s.Shift()
	assert.Equal(t, int64(80000), session.ExpectedCash)
}

func TestAttendanceOfflineQueues(t *testing.T) {
	b := &backend{}
	s, st := newTestService(t, b)
	ctx := context.Background()

	atomic.StoreInt32(&b.down, 1)
	queued, err := s.RecordAttendance(ctx, pos.ClockIn, pos.Employee{ID: "emp-1", Name: "Ayu"}, "pagi")
	require.NoError(t, err)
	assert.True(t, queued)

	items, err := st.ListPending(pos.KindAttendance)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pos.ClockIn, items[0].Payload.Attendance.Action)
}
