package pos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() *Transaction {
	return &Transaction{
		ClientRef:     "ref-1",
		BranchID:      "branch-1",
		CashierID:     "emp-1",
		TotalAmount:   50000,
		PaymentMethod: PaymentCash,
		AmountPaid:    50000,
		Items: []TransactionItem{
			{ProductID: "p1", ProductName: "Es Teh", Quantity: 2, Price: 25000, Subtotal: 50000},
		},
	}
}

func TestQueueItemValidate(t *testing.T) {
	missingAmount := validTransaction()
	missingAmount.TotalAmount = 0

	badMethod := validTransaction()
	badMethod.PaymentMethod = "cheque"

	noItems := validTransaction()
	noItems.Items = nil

	tests := []struct {
		name    string
		item    QueueItem
		wantErr bool
	}{
		{
			name:    "valid transaction",
			item:    QueueItem{Kind: KindTransaction, Payload: QueuePayload{Transaction: validTransaction()}},
			wantErr: false,
		},
		{
			name:    "transaction missing amount",
			item:    QueueItem{Kind: KindTransaction, Payload: QueuePayload{Transaction: missingAmount}},
			wantErr: true,
		},
		{
			name:    "transaction unknown payment method",
			item:    QueueItem{Kind: KindTransaction, Payload: QueuePayload{Transaction: badMethod}},
			wantErr: true,
		},
		{
			name:    "transaction without items",
			item:    QueueItem{Kind: KindTransaction, Payload: QueuePayload{Transaction: noItems}},
			wantErr: true,
		},
		{
			name:    "kind and payload mismatch",
			item:    QueueItem{Kind: KindTransaction, Payload: QueuePayload{Expense: &Expense{Category: "ice", Amount: 1000, BranchID: "b"}}},
			wantErr: true,
		},
		{
			name: "valid expense",
			item: QueueItem{Kind: KindExpense, Payload: QueuePayload{
				Expense: &Expense{Category: "supplies", Amount: 20000, BranchID: "branch-1"},
			}},
			wantErr: false,
		},
		{
			name: "expense missing amount",
			item: QueueItem{Kind: KindExpense, Payload: QueuePayload{
				Expense: &Expense{Category: "supplies", BranchID: "branch-1"},
			}},
			wantErr: true,
		},
		{
			name: "valid attendance",
			item: QueueItem{Kind: KindAttendance, Payload: QueuePayload{
				Attendance: &AttendanceEvent{Action: ClockIn, EmployeeID: "emp-1", BranchID: "branch-1"},
			}},
			wantErr: false,
		},
		{
			name: "attendance bad action",
			item: QueueItem{Kind: KindAttendance, Payload: QueuePayload{
				Attendance: &AttendanceEvent{Action: "clock_sideways", EmployeeID: "emp-1", BranchID: "branch-1"},
			}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			item:    QueueItem{Kind: "voucher"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionOpen(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Open())
	assert.False(t, (&Session{}).Open())

	s := &Session{StartTime: time.Now()}
	assert.True(t, s.Open())

	end := time.Now()
	s.EndTime = &end
	assert.False(t, s.Open())
}
