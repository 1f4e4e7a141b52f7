package ledger

import (
	"errors"

	"github.com/nspcc-dev/banking-contract/banking/bankingconst"
)

// Failure categories. Every error returned by Ledger methods wraps exactly one
// of them, so callers match with errors.Is and show Error() to users.
var (
	// ErrUnauthorized is a category of operations invoked by the wrong caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidAmount is a category of amounts out of the allowed range.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds is a category of debits exceeding the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrSameAccount is a category of transfers to the source account.
	ErrSameAccount = errors.New("same account")
	// ErrNotFound is a category of references to unknown account ids.
	ErrNotFound = errors.New("not found")
)

// Error describes a rejected ledger operation. Reason is the exact message
// surfaced to callers, Kind is the failure category.
type Error struct {
	Kind   error
	Reason string
}

// Error implements the error interface and returns Reason.
func (e *Error) Error() string {
	return e.Reason
}

// Unwrap returns Kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

var (
	errNotContractOwner = newError(ErrUnauthorized, bankingconst.ErrNotContractOwner)
	errNotAccountOwner  = newError(ErrUnauthorized, bankingconst.ErrNotAccountOwner)
	errNotWithdrawOwner = newError(ErrUnauthorized, bankingconst.ErrNotWithdrawOwner)
	errDepositAmount    = newError(ErrInvalidAmount, bankingconst.ErrDepositAmount)
	errTransferAmount   = newError(ErrInvalidAmount, bankingconst.ErrTransferAmount)
	errWithdrawAmount   = newError(ErrInvalidAmount, bankingconst.ErrWithdrawAmount)
	errInsufficient     = newError(ErrInsufficientFunds, bankingconst.ErrInsufficientBalance)
	errSameAccount      = newError(ErrSameAccount, bankingconst.ErrSameAccount)
	errNotFound         = newError(ErrNotFound, bankingconst.ErrAccountNotFound)
)
