package ledger

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// AccountID is a sequential account number. Valid ids start at 1.
type AccountID uint64

// Account is a registered balance holder.
type Account struct {
	ID AccountID
	// Owner is the identity which created the account. It never changes.
	Owner util.Uint160
	// Balance in the smallest indivisible unit, never negative.
	Balance *big.Int
}

// copy returns a deep copy of the account, so the caller can't touch ledger
// state through the balance pointer.
func (a Account) copy() Account {
	a.Balance = new(big.Int).Set(a.Balance)
	return a
}

// Event is an observable ledger notification.
type Event interface {
	// Name returns notification name as it's seen by external consumers.
	Name() string
}

// AccountCreated is produced exactly once per successful CreateAccount.
type AccountCreated struct {
	ID      AccountID
	Owner   util.Uint160
	Balance *big.Int
}

// Name implements Event.
func (AccountCreated) Name() string {
	return accountCreatedName
}
