package api

import (
	"bestea_pos/internal/pos"
)

type writeTransactionRequest struct {
	Transaction pos.Transaction       `json:"transaction"`
	Items       []pos.TransactionItem `json:"items"`
}

// writeTransactionResponse is the subset the backend's atomic procedure
// returns; display code and date are assigned server-side.
type writeTransactionResponse struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	TransactionCode string `json:"transactionCode"`
	Status          string `json:"status"`
}

type attendanceRequest struct {
	Action      pos.AttendanceAction `json:"action,omitempty"`
	EmployeeID  string               `json:"employeeId"`
	BranchID    string               `json:"branchId"`
	Shift       string               `json:"shift,omitempty"`
	Status      string               `json:"status,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	CheckInTime string               `json:"checkInTime,omitempty"`
	Date        string               `json:"date,omitempty"`
}

type attendanceRecord struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	BranchID   string `json:"branchId"`
	Date       string `json:"date"`
	CheckIn    string `json:"checkIn,omitempty"`
	CheckOut   string `json:"checkOut,omitempty"`
	Status     string `json:"status,omitempty"`
}

type openSessionRequest struct {
	BranchID    string `json:"branchId"`
	EmployeeID  string `json:"employeeId"`
	InitialCash int64  `json:"initialCash"`
}

type closeSessionRequest struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employeeId"`
	ActualCash   int64  `json:"actualCash"`
	ExpectedCash int64  `json:"expectedCash"`
	Notes        string `json:"notes,omitempty"`
}

// SessionDetail is the authoritative view used by refresh-after-sync.
type SessionDetail struct {
	Session      pos.Session       `json:"session"`
	TotalCash    int64             `json:"cashTransactionsTotal"`
	TotalQRIS    int64             `json:"qrisTransactionsTotal"`
	TotalExpense int64             `json:"expensesTotal"`
	Transactions []pos.Transaction `json:"transactions"`
	Expenses     []pos.Expense     `json:"expenses"`
}

type errorBody struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Active  *pos.Session `json:"activeSession,omitempty"`
}
