package ledger

import (
	"math/big"

	"github.com/nspcc-dev/banking-contract/banking/bankingconst"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

const accountCreatedName = bankingconst.AccountCreatedEvent

// Ledger holds account records and the contract owner identity. Ledger is
// not safe for concurrent use: the hosting environment applies operations one
// at a time. Every operation validates all its preconditions before touching
// state, so a failed call leaves the ledger exactly as it was.
type Ledger struct {
	owner util.Uint160
	// accounts is an arena indexed by id-1.
	accounts []Account
	counter  AccountID
	events   []Event
}

// New initializes a ledger owned by the initializer identity.
func New(initializer util.Uint160) *Ledger {
	return &Ledger{owner: initializer}
}

// ContractOwner returns the identity allowed to reassign the contract owner
// role.
func (l *Ledger) ContractOwner() util.Uint160 {
	return l.owner
}

// AccountsCounter returns the number of registered accounts which is also the
// id of the latest one.
func (l *Ledger) AccountsCounter() AccountID {
	return l.counter
}

// Events returns notifications produced since the last DrainEvents call,
// oldest first.
func (l *Ledger) Events() []Event {
	res := make([]Event, len(l.events))
	copy(res, l.events)
	return res
}

// DrainEvents returns pending notifications and forgets them. Hosts drain
// events after every applied operation, so the journal doesn't grow.
func (l *Ledger) DrainEvents() []Event {
	res := l.events
	l.events = nil
	return res
}

// CreateAccount registers a new zero-balance account owned by the caller. It
// never fails.
func (l *Ledger) CreateAccount(caller util.Uint160) AccountCreated {
	l.counter++
	l.accounts = append(l.accounts, Account{
		ID:      l.counter,
		Owner:   caller,
		Balance: new(big.Int),
	})

	ev := AccountCreated{ID: l.counter, Owner: caller, Balance: new(big.Int)}
	l.events = append(l.events, ev)

	return AccountCreated{ID: ev.ID, Owner: ev.Owner, Balance: new(big.Int)}
}

// SetContractOwner passes the contract owner role to newOwner. Only the
// current contract owner can do that.
func (l *Ledger) SetContractOwner(caller, newOwner util.Uint160) error {
	if !caller.Equals(l.owner) {
		return errNotContractOwner
	}

	l.owner = newOwner
	return nil
}

// GetAccountDetails returns a copy of the account record.
func (l *Ledger) GetAccountDetails(id AccountID) (Account, error) {
	acc, err := l.account(id)
	if err != nil {
		return Account{}, err
	}

	return acc.copy(), nil
}

// GetAccountBalance returns the current account balance.
func (l *Ledger) GetAccountBalance(id AccountID) (*big.Int, error) {
	acc, err := l.account(id)
	if err != nil {
		return nil, err
	}

	return new(big.Int).Set(acc.Balance), nil
}

// Deposit credits the account with a positive amount. Only the account owner
// can deposit.
func (l *Ledger) Deposit(caller util.Uint160, id AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errDepositAmount
	}

	acc, err := l.account(id)
	if err != nil {
		return err
	}

	if !caller.Equals(acc.Owner) {
		return errNotAccountOwner
	}

	acc.Balance.Add(acc.Balance, amount)
	return nil
}

// Withdraw debits the account. Zero amount is a successful no-op. Only the
// account owner can withdraw.
func (l *Ledger) Withdraw(caller util.Uint160, id AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errWithdrawAmount
	}

	acc, err := l.account(id)
	if err != nil {
		return err
	}

	if !caller.Equals(acc.Owner) {
		return errNotWithdrawOwner
	}

	if amount.Cmp(acc.Balance) > 0 {
		return errInsufficient
	}

	acc.Balance.Sub(acc.Balance, amount)
	return nil
}

// TransferFunds moves a positive amount between two different accounts.
// Only the owner of the source account can transfer, the destination account
// must exist.
func (l *Ledger) TransferFunds(caller util.Uint160, from, to AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errTransferAmount
	}

	if from == to {
		return errSameAccount
	}

	src, err := l.account(from)
	if err != nil {
		return err
	}

	if !caller.Equals(src.Owner) {
		return errNotAccountOwner
	}

	dst, err := l.account(to)
	if err != nil {
		return err
	}

	if amount.Cmp(src.Balance) > 0 {
		return errInsufficient
	}

	src.Balance.Sub(src.Balance, amount)
	dst.Balance.Add(dst.Balance, amount)

	return nil
}

// TotalBalance returns the sum of all account balances.
func (l *Ledger) TotalBalance() *big.Int {
	sum := new(big.Int)
	for i := range l.accounts {
		sum.Add(sum, l.accounts[i].Balance)
	}

	return sum
}

func (l *Ledger) account(id AccountID) (*Account, error) {
	if id == 0 || uint64(id) > uint64(len(l.accounts)) {
		return nil, errNotFound
	}

	return &l.accounts[id-1], nil
}
