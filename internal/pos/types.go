package pos

import (
	"time"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQRIS PaymentMethod = "qris"
)

type Employee struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	BranchID string `json:"branchId,omitempty"`
}

type TransactionItem struct {
	ProductID   string `json:"productId" validate:"required"`
	ProductName string `json:"productName"`
	Variant     string `json:"variant,omitempty"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	Price       int64  `json:"price" validate:"gte=0"`
	Subtotal    int64  `json:"subtotal"`
}

// Transaction is one sale. ClientRef is generated on the device and stays
// stable across replays so the backend can dedupe a retried write.
// ID, TransactionCode and Date are assigned by the server.
type Transaction struct {
	ClientRef       string            `json:"clientRef"`
	ID              string            `json:"id,omitempty"`
	TransactionCode string            `json:"transactionCode,omitempty"`
	Date            string            `json:"date,omitempty"`
	BranchID        string            `json:"branchId" validate:"required"`
	CashierID       string            `json:"cashierId" validate:"required"`
	CashierName     string            `json:"cashierName"`
	CustomerName    string            `json:"customerName,omitempty"`
	TotalAmount     int64             `json:"totalAmount" validate:"gt=0"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod" validate:"oneof=cash qris"`
	AmountPaid      int64             `json:"amountPaid" validate:"gte=0"`
	ChangeAmount    int64             `json:"changeAmount"`
	Status          string            `json:"status,omitempty"`
	ShiftSessionID  string            `json:"shiftSessionId,omitempty"`
	Items           []TransactionItem `json:"items" validate:"min=1,dive"`
	CreatedAt       time.Time         `json:"createdAt,omitzero"`
}

type Expense struct {
	ID             string    `json:"id,omitempty"`
	Category       string    `json:"category" validate:"required"`
	Amount         int64     `json:"amount" validate:"gt=0"`
	Description    string    `json:"description"`
	BranchID       string    `json:"branchId" validate:"required"`
	RecordedBy     string    `json:"recordedBy"`
	RecordedByName string    `json:"recordedByName"`
	ShiftSessionID string    `json:"shiftSessionId,omitempty"`
	RecordedAt     time.Time `json:"recordedAt,omitzero"`
}

type AttendanceAction string

const (
	ClockIn  AttendanceAction = "clock_in"
	ClockOut AttendanceAction = "clock_out"
)

type AttendanceEvent struct {
	Action     AttendanceAction `json:"action" validate:"oneof=clock_in clock_out"`
	EmployeeID string           `json:"employeeId" validate:"required"`
	BranchID   string           `json:"branchId" validate:"required"`
	Shift      string           `json:"shift,omitempty"`
	Status     string           `json:"status,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	At         time.Time        `json:"at,omitzero"`
}

// Session is one open-to-close cashier work period for one branch.
// ExpectedCash is kept equal to InitialCash + TotalCash - TotalExpenses;
// QRIS takings never enter the drawer so they are excluded.
type Session struct {
	ID            string        `json:"id,omitempty"`
	BranchID      string        `json:"branchId"`
	OpenedBy      *Employee     `json:"openedBy,omitempty"`
	ClosedBy      *Employee     `json:"closedBy,omitempty"`
	StartTime     time.Time     `json:"startTime,omitzero"`
	EndTime       *time.Time    `json:"endTime,omitempty"`
	InitialCash   int64         `json:"initialCash"`
	TotalCash     int64         `json:"totalCashTransactions"`
	TotalQRIS     int64         `json:"totalQrisTransactions"`
	TotalExpenses int64         `json:"totalExpenses"`
	ExpectedCash  int64         `json:"expectedCash"`
	ActualCash    *int64        `json:"actualCash,omitempty"`
	Discrepancy   *int64        `json:"discrepancy,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Transactions  []Transaction `json:"transactions,omitempty"`
	Expenses      []Expense     `json:"expenses,omitempty"`
}

func (s *Session) Open() bool {
	return s != nil && s.EndTime == nil && !s.StartTime.IsZero()
}
