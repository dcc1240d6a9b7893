package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by its side-effect footprint. Everything up to
// and including KindLedgerFailed leaves no state behind; KindIndexFailed and
// KindEventAppendFailed mean the ledger mutation already happened and only
// the off-chain index is behind.
type Kind string

const (
	KindRejectedInput        Kind = "REJECTED_INPUT"
	KindConflict             Kind = "CONFLICT"
	KindNotFound             Kind = "NOT_FOUND"
	KindDecimalsUnresolvable Kind = "DECIMALS_UNRESOLVABLE"
	KindLedgerFailed         Kind = "LEDGER_FAILED"
	KindIndexFailed          Kind = "INDEX_FAILED"
	KindEventAppendFailed    Kind = "EVENT_APPEND_FAILED"
)

// Error is the taxonomy error carried across the orchestration boundary.
// TxID is set exactly when a ledger transaction was produced before the
// failure, so callers can repair instead of resubmitting.
type Error struct {
	Kind    Kind
	Message string
	TxID    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewRejectedInput(format string, args ...any) error {
	return &Error{Kind: KindRejectedInput, Message: fmt.Sprintf(format, args...)}
}

func NewConflict(agentID string) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf("agent %q already exists", agentID)}
}

func NewNotFound(agentID string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("agent %q not found", agentID)}
}

func NewDecimalsUnresolvable(mint string, err error) error {
	return &Error{Kind: KindDecimalsUnresolvable, Message: fmt.Sprintf("cannot resolve decimals for mint %s", mint), Err: err}
}

func NewLedgerFailed(err error) error {
	return &Error{Kind: KindLedgerFailed, Message: "ledger submission failed", Err: err}
}

func NewIndexFailed(txID string, err error) error {
	return &Error{Kind: KindIndexFailed, Message: "agent created on ledger but index write failed", TxID: txID, Err: err}
}

func NewEventAppendFailed(txID string, err error) error {
	return &Error{Kind: KindEventAppendFailed, Message: "units minted on ledger but event append failed", TxID: txID, Err: err}
}

// KindOf extracts the taxonomy kind, or "" for untyped errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// TxIDOf returns the ledger transaction id attached to err, if any.
func TxIDOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.TxID
	}
	return ""
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
