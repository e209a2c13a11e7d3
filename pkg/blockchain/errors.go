package blockchain

import (
	"errors"
	"fmt"
	"strings"
)

// Typed failures surfaced by the connection/session layer. Callers inspect
// them with errors.Is; everything else arrives wrapped in a RemoteCallError.
var (
	// ErrNoWalletAvailable - a write was requested with no wallet provider bound.
	ErrNoWalletAvailable = errors.New("no wallet available")
	// ErrEndpointsExhausted - every fallback endpoint failed during resolution.
	ErrEndpointsExhausted = errors.New("all fallback endpoints exhausted")
	// ErrContractNotFound - the bound endpoint has no bytecode at the configured address.
	ErrContractNotFound = errors.New("no contract code at configured address")
	// ErrWrongNetwork - the bound chain id does not match the configured target.
	ErrWrongNetwork = errors.New("bound network does not match configured target")
	// ErrCapabilityDenied - an operation requiring read/write was attempted
	// while the session lacks that capability.
	ErrCapabilityDenied = errors.New("session capability denied")
	// ErrUserRejected - the wallet user declined a permission or transaction prompt.
	ErrUserRejected = errors.New("user rejected request")
	// ErrInsufficientFunds - balance insufficient to cover value plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds for value plus fees")
)

// RemoteCallError wraps a transport-level failure, keeping the underlying
// message and the operation that produced it.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call %s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// RemoteCall wraps err as a RemoteCallError for the named operation.
// Returns nil when err is nil.
func RemoteCall(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteCallError{Op: op, Err: err}
}

// ClassifySendError maps a transaction submission error onto the typed
// taxonomy. Wallet rejections and balance shortfalls are recognized by their
// transport messages; anything else becomes a RemoteCallError for op.
func ClassifySendError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, err)
	case strings.Contains(msg, "user denied"),
		strings.Contains(msg, "user rejected"),
		strings.Contains(msg, "request rejected"):
		return fmt.Errorf("%w: %s", ErrUserRejected, err)
	default:
		return &RemoteCallError{Op: op, Err: err}
	}
}
