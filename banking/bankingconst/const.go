/*
Package bankingconst contains constants shared by the Banking contract and its
off-chain counterparts. Failure messages are a part of the contract interface
and must not be reworded.
*/
package bankingconst

const (
	// ErrNotContractOwner is returned when the contract owner role is changed
	// by anyone but the current contract owner.
	ErrNotContractOwner = "You must be the contract owner"
	// ErrNotAccountOwner is returned when deposit or transfer is invoked by
	// someone who doesn't own the (source) account.
	ErrNotAccountOwner = "You must be the account owner"
	// ErrNotWithdrawOwner is returned when withdrawal is invoked by someone
	// who doesn't own the account.
	ErrNotWithdrawOwner = "You can withdraw only from the account you own"
	// ErrDepositAmount is returned for non-positive deposits.
	ErrDepositAmount = "Amount lesser or equal to 0"
	// ErrTransferAmount is returned for non-positive transfers.
	ErrTransferAmount = "amount must be greater than zero"
	// ErrWithdrawAmount is returned for negative withdrawals.
	ErrWithdrawAmount = "amount must not be negative"
	// ErrInsufficientBalance is returned when the source account can't cover
	// the requested amount.
	ErrInsufficientBalance = "insufficient balance"
	// ErrSameAccount is returned for self-transfers.
	ErrSameAccount = "cannot transfer funds to the same account"
	// ErrAccountNotFound is returned for unknown account ids.
	ErrAccountNotFound = "account not found"
)

const (
	// AccountCreatedEvent is the name of the notification produced on every
	// successful account registration.
	AccountCreatedEvent = "AccountCreated"
)
