package pos

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type QueueKind string

const (
	KindTransaction QueueKind = "transaction"
	KindAttendance  QueueKind = "attendance"
	KindExpense     QueueKind = "expense"
)

// QueueKinds is the drain order: transactions first so session totals are
// settled before expenses that reference the same session replay.
var QueueKinds = []QueueKind{KindTransaction, KindAttendance, KindExpense}

// QueuePayload is a tagged union: exactly one member is set, matching the
// item's Kind. Replay logic switches on Kind and is checked per variant.
type QueuePayload struct {
	Transaction *Transaction     `json:"transaction,omitempty"`
	Attendance  *AttendanceEvent `json:"attendance,omitempty"`
	Expense     *Expense         `json:"expense,omitempty"`
}

// QueueItem is one locally persisted write awaiting replay. EnqueuedAt is
// the originating time, carried into the replayed record so server-side
// timestamps reflect when the sale actually happened.
type QueueItem struct {
	ID         string       `json:"id"`
	Kind       QueueKind    `json:"kind"`
	Payload    QueuePayload `json:"payload"`
	EnqueuedAt time.Time    `json:"enqueuedAt"`
	Offline    bool         `json:"offline"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether the payload is structurally fit for replay.
// A failure here means the item can never succeed and must be dropped
// instead of retried.
func (it QueueItem) Validate() error {
	switch it.Kind {
	case KindTransaction:
		if it.Payload.Transaction == nil {
			return &ValidationError{Field: "transaction", Reason: "payload missing"}
		}
		return wrapValidation(validate.Struct(it.Payload.Transaction))
	case KindAttendance:
		if it.Payload.Attendance == nil {
			return &ValidationError{Field: "attendance", Reason: "payload missing"}
		}
		return wrapValidation(validate.Struct(it.Payload.Attendance))
	case KindExpense:
		if it.Payload.Expense == nil {
			return &ValidationError{Field: "expense", Reason: "payload missing"}
		}
		return wrapValidation(validate.Struct(it.Payload.Expense))
	default:
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", it.Kind)}
	}
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return &ValidationError{Field: errs[0].Field(), Reason: errs[0].Tag()}
	}
	return &ValidationError{Reason: err.Error()}
}
