package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bestea_pos/internal/config"
	"bestea_pos/internal/pos"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	transactionsPath  = "/api/transactions"
	attendancePath    = "/api/attendance"
	expensesPath      = "/api/expenses"
	shiftSessionsPath = "/api/shift-sessions"
	keepAlivePath     = "/api/keep-alive"
)

// Client talks to the managed POS backend. Every call carries a bounded
// timeout so a hung request cannot stall a sync pass.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err == nil && resp != nil && resp.StatusCode() == http.StatusTooManyRequests
		})

	if cfg.APIToken != "" {
		httpClient.SetAuthScheme("Bearer")
		httpClient.SetAuthToken(cfg.APIToken)
	}
	if cfg.DeviceID != "" {
		httpClient.SetHeader("X-Device-ID", cfg.DeviceID)
	}

	return &Client{
		http:   httpClient,
		logger: logger.Named("api"),
	}
}

// WriteTransaction persists a sale plus its line items atomically on the
// backend and returns the server-assigned id and display code.
func (c *Client) WriteTransaction(ctx context.Context, tx pos.Transaction) (pos.Transaction, error) {
	req := writeTransactionRequest{Transaction: tx, Items: tx.Items}
	var out writeTransactionResponse
	if err := c.do(ctx, http.MethodPost, transactionsPath, req, &out); err != nil {
		return pos.Transaction{}, err
	}
	tx.ID = out.ID
	tx.TransactionCode = out.TransactionCode
	tx.Date = out.Date
	if out.Status != "" {
		tx.Status = out.Status
	}
	return tx, nil
}

// WriteAttendance replays a clock event. clock_in creates today's record,
// clock_out updates the most recent open one; the backend answers NotFound
// when there is nothing open to clock out of.
func (c *Client) WriteAttendance(ctx context.Context, ev pos.AttendanceEvent) error {
	req := attendanceRequest{
		EmployeeID: ev.EmployeeID,
		BranchID:   ev.BranchID,
		Shift:      ev.Shift,
		Status:     ev.Status,
		Notes:      ev.Notes,
	}
	if !ev.At.IsZero() {
		req.Date = ev.At.Format("2006-01-02")
	}

	method := http.MethodPost
	if ev.Action == pos.ClockOut {
		method = http.MethodPut
		req.Action = pos.ClockOut
	} else if !ev.At.IsZero() {
		req.CheckInTime = ev.At.Format(time.RFC3339)
	}

	var out attendanceRecord
	return c.do(ctx, method, attendancePath, req, &out)
}

func (c *Client) WriteExpense(ctx context.Context, exp pos.Expense) (pos.Expense, error) {
	var out pos.Expense
	if err := c.do(ctx, http.MethodPost, expensesPath, exp, &out); err != nil {
		return pos.Expense{}, err
	}
	return out, nil
}

// ActiveSession returns the open shift for the branch, or nil when none.
func (c *Client) ActiveSession(ctx context.Context, branchID string) (*pos.Session, error) {
	path := fmt.Sprintf("%s?branchId=%s&status=open", shiftSessionsPath, branchID)
	var out pos.Session
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		if errors.Is(err, pos.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) OpenSession(ctx context.Context, branchID, employeeID string, initialCash int64) (pos.Session, error) {
	req := openSessionRequest{BranchID: branchID, EmployeeID: employeeID, InitialCash: initialCash}
	var out pos.Session
	if err := c.do(ctx, http.MethodPost, shiftSessionsPath, req, &out); err != nil {
		return pos.Session{}, err
	}
	return out, nil
}

func (c *Client) CloseSession(ctx context.Context, sessionID, employeeID string, actualCash, expectedCash int64, notes string) error {
	req := closeSessionRequest{
		ID:           sessionID,
		EmployeeID:   employeeID,
		ActualCash:   actualCash,
		ExpectedCash: expectedCash,
		Notes:        notes,
	}
	return c.do(ctx, http.MethodPut, shiftSessionsPath, req, nil)
}

// SessionDetail fetches authoritative totals and the confirmed
// transaction/expense lists for one session.
func (c *Client) SessionDetail(ctx context.Context, sessionID string) (SessionDetail, error) {
	var out SessionDetail
	path := fmt.Sprintf("%s/%s", shiftSessionsPath, sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return SessionDetail{}, err
	}
	return out, nil
}

// Ping is the connectivity probe. Any 2xx means the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, keepAlivePath, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &pos.NetworkError{Op: method + " " + path, Err: err}
	}
	if resp.IsError() {
		return errorFromResponse(method, path, resp)
	}
	return nil
}

func errorFromResponse(method, path string, resp *resty.Response) error {
	var eb errorBody
	_ = json.Unmarshal(resp.Body(), &eb)

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pos.ErrUnauthorized
	case http.StatusNotFound:
		return pos.ErrNotFound
	case http.StatusConflict:
		return &pos.ConflictError{Message: messageOf(eb, "conflict"), Active: eb.Active}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &pos.ValidationError{Reason: messageOf(eb, resp.Status())}
	case http.StatusTooManyRequests:
		// still throttled after the built-in retry; transient, the item
		// must take the queue path rather than fail the operation
		return &pos.NetworkError{
			Op:  method + " " + path,
			Err: fmt.Errorf("rate limited: %s", messageOf(eb, resp.Status())),
		}
	default:
		if resp.StatusCode() >= http.StatusInternalServerError {
			return &pos.NetworkError{
				Op:  method + " " + path,
				Err: fmt.Errorf("server %s: %s", resp.Status(), messageOf(eb, "")),
			}
		}
		return fmt.Errorf("api error: %s: %s", resp.Status(), messageOf(eb, ""))
	}
}

func messageOf(eb errorBody, fallback string) string {
	if eb.Message != "" {
		return eb.Message
	}
	if eb.Error != "" {
		return eb.Error
	}
	return fallback
}
