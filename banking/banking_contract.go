package banking

import (
	"github.com/nspcc-dev/banking-contract/banking/bankingconst"
	"github.com/nspcc-dev/banking-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Account structure stores owner and balance of a ledger account.
type Account struct {
	Owner   interop.Hash160
	Balance int
}

const (
	ownerKey      = "owner"
	counterKey    = "counter"
	accountPrefix = "a"
)

func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	tx := runtime.GetScriptContainer()

	storage.Put(ctx, ownerKey, tx.Sender)
	storage.Put(ctx, counterKey, 0)

	runtime.Log("banking contract initialized")
}

// Update method updates contract source code and manifest. Can be invoked
// only by the contract owner.
func Update(script []byte, manifest []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	if !common.HasUpdateAccess(getOwner(ctx)) {
		panic(bankingconst.ErrNotContractOwner)
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("banking contract updated")
}

// CreateAccount method opens a new account with zero balance owned by the
// caller and returns its id. Ids start from 1 and grow by one.
func CreateAccount() int {
	ctx := storage.GetContext()

	owner := caller()
	id := storage.Get(ctx, counterKey).(int) + 1

	common.SetSerialized(ctx, accountKey(id), Account{
		Owner:   owner,
		Balance: 0,
	})
	storage.Put(ctx, counterKey, id)

	runtime.Notify(bankingconst.AccountCreatedEvent, id, owner, 0)

	return id
}

// SetContractOwner method replaces the contract owner. Can be invoked only
// by the current owner.
func SetContractOwner(newOwner interop.Hash160) {
	ctx := storage.GetContext()

	common.CheckWitness(getOwner(ctx), bankingconst.ErrNotContractOwner)

	if len(newOwner) != interop.Hash160Len {
		panic("invalid owner")
	}

	storage.Put(ctx, ownerKey, newOwner)
}

// Deposit method increases account balance by a positive amount. Can be
// invoked only by the account owner.
func Deposit(accountID int, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic(bankingconst.ErrDepositAmount)
	}

	acc := getAccount(ctx, accountID)
	common.CheckWitness(acc.Owner, bankingconst.ErrNotAccountOwner)

	acc.Balance = acc.Balance + amount // neo-go#953
	common.SetSerialized(ctx, accountKey(accountID), acc)
}

// Withdraw method decreases account balance. Withdrawal of zero is allowed
// and changes nothing. Can be invoked only by the account owner.
func Withdraw(accountID int, amount int) {
	ctx := storage.GetContext()

	if amount < 0 {
		panic(bankingconst.ErrWithdrawAmount)
	}

	acc := getAccount(ctx, accountID)
	common.CheckWitness(acc.Owner, bankingconst.ErrNotWithdrawOwner)

	if amount > acc.Balance {
		panic(bankingconst.ErrInsufficientBalance)
	}

	acc.Balance = acc.Balance - amount // neo-go#953
	common.SetSerialized(ctx, accountKey(accountID), acc)
}

// TransferFunds method moves a positive amount between two different
// accounts. Can be invoked only by the owner of the source account.
func TransferFunds(fromID, toID int, amount int) {
	ctx := storage.GetContext()

	if amount <= 0 {
		panic(bankingconst.ErrTransferAmount)
	}

	if fromID == toID {
		panic(bankingconst.ErrSameAccount)
	}

	from := getAccount(ctx, fromID)
	common.CheckWitness(from.Owner, bankingconst.ErrNotAccountOwner)

	to := getAccount(ctx, toID)

	if amount > from.Balance {
		panic(bankingconst.ErrInsufficientBalance)
	}

	from.Balance = from.Balance - amount // neo-go#953
	to.Balance = to.Balance + amount     // neo-go#953

	common.SetSerialized(ctx, accountKey(fromID), from)
	common.SetSerialized(ctx, accountKey(toID), to)
}

// GetAccountDetails method returns owner and balance of the account.
func GetAccountDetails(accountID int) Account {
	ctx := storage.GetReadOnlyContext()
	return getAccount(ctx, accountID)
}

// GetAccountBalance method returns balance of the account.
func GetAccountBalance(accountID int) int {
	ctx := storage.GetReadOnlyContext()
	return getAccount(ctx, accountID).Balance
}

// ContractOwner method returns the current contract owner.
func ContractOwner() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return getOwner(ctx)
}

// AccountsCounter method returns the number of created accounts which is
// also the latest account id.
func AccountsCounter() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, counterKey).(int)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}

func getAccount(ctx storage.Context, id int) Account {
	data := common.GetSerialized(ctx, accountKey(id))
	if data == nil {
		panic(bankingconst.ErrAccountNotFound)
	}

	return data.(Account)
}

func accountKey(id int) string {
	return accountPrefix + std.Itoa10(id)
}

// caller returns the identity of the invoker: transaction sender for direct
// calls and the calling contract otherwise.
func caller() interop.Hash160 {
	calling := runtime.GetCallingScriptHash()
	if calling.Equals(runtime.GetEntryScriptHash()) {
		return runtime.GetScriptContainer().Sender
	}

	return calling
}
