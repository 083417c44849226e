package types

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code surfaced verbatim to clients.
type Code string

// Ledger error codes.
const (
	CodeInvalidTitle          Code = "INVALID_TITLE"
	CodeInvalidEndTime        Code = "INVALID_END_TIME"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeDuplicateBet          Code = "DUPLICATE_BET"
	CodeDuplicateStake        Code = "DUPLICATE_STAKE"
	CodeBetAlreadyResolved    Code = "BET_ALREADY_RESOLVED"
	CodeBetNotResolved        Code = "BET_NOT_RESOLVED"
	CodeBetNotEnded           Code = "BET_NOT_ENDED"
	CodeBetEndTimeExceeded    Code = "BET_END_TIME_EXCEEDED"
	CodeAlreadyClaimed        Code = "ALREADY_CLAIMED"
	CodeNotWinner             Code = "NOT_WINNER"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeAccountNotInitialized Code = "ACCOUNT_NOT_INITIALIZED"
	CodeVaultMismatch         Code = "VAULT_MISMATCH"
	CodeAmountOverflow        Code = "AMOUNT_OVERFLOW"
	CodeNoWinningPool         Code = "NO_WINNING_POOL"
	CodeInsufficientFunds     Code = "INSUFFICIENT_FUNDS"
)

// BetError is a categorical ledger error. Every failed lifecycle transition
// aborts with one of these; no partial state change accompanies it.
type BetError struct {
	Code    Code
	Message string
}

func (e *BetError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBetError creates a BetError with the given code and message.
func NewBetError(code Code, message string) *BetError {
	return &BetError{Code: code, Message: message}
}

// NewBetErrorf creates a BetError with a formatted message.
func NewBetErrorf(code Code, format string, args ...any) *BetError {
	return &BetError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ledger error code from err, unwrapping as needed.
// Returns an empty code for nil or non-ledger errors.
func CodeOf(err error) Code {
	var betErr *BetError
	if errors.As(err, &betErr) {
		return betErr.Code
	}

	return ""
}

// IsCode reports whether err carries the given ledger error code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
