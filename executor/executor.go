package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/nspcc-dev/banking-contract/common"
	"github.com/nspcc-dev/banking-contract/ledger"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"go.uber.org/zap"
)

// Method names, the same as Banking contract ones.
const (
	MethodCreateAccount     = "createAccount"
	MethodSetContractOwner  = "setContractOwner"
	MethodDeposit           = "deposit"
	MethodWithdraw          = "withdraw"
	MethodTransferFunds     = "transferFunds"
	MethodGetAccountDetails = "getAccountDetails"
	MethodGetAccountBalance = "getAccountBalance"
	MethodContractOwner     = "contractOwner"
	MethodAccountsCounter   = "accountsCounter"
	MethodVersion           = "version"
)

type method struct {
	safe    bool
	nParams int
}

var methods = map[string]method{
	MethodCreateAccount:     {nParams: 0},
	MethodSetContractOwner:  {nParams: 1},
	MethodDeposit:           {nParams: 2},
	MethodWithdraw:          {nParams: 2},
	MethodTransferFunds:     {nParams: 3},
	MethodGetAccountDetails: {safe: true, nParams: 1},
	MethodGetAccountBalance: {safe: true, nParams: 1},
	MethodContractOwner:     {safe: true},
	MethodAccountsCounter:   {safe: true},
	MethodVersion:           {safe: true},
}

var (
	// ErrReplayed is returned for invocations with already applied ID.
	ErrReplayed = errors.New("invocation already applied")
	// ErrMethodNotFound is a FAULT cause for unknown method names.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvalidParameters is a FAULT cause for malformed parameters.
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Publisher receives events of successfully applied invocations.
type Publisher interface {
	Publish(ctx context.Context, ev ledger.Event) error
}

// Option configures Executor.
type Option func(*Executor)

// WithLogger sets the logger, no-op logger is used by default.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// WithPublisher makes Executor pass produced events to p.
func WithPublisher(p Publisher) Option {
	return func(e *Executor) {
		e.pub = p
	}
}

// WithMagic sets the value binding invocation signatures to the Executor,
// random one is used by default.
func WithMagic(magic uint32) Option {
	return func(e *Executor) {
		e.magic = magic
	}
}

// WithMetrics enables invocation accounting.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// Executor hosts a ledger the way a blockchain hosts a contract: it
// authenticates the caller of every invocation by its witness, applies
// invocations one at a time and reports each outcome as HALT or FAULT. Failed
// invocations never change the ledger. Executor is safe for concurrent use.
type Executor struct {
	magic   uint32
	log     *zap.Logger
	pub     Publisher
	metrics *Metrics

	mu      sync.Mutex
	ledger  *ledger.Ledger
	applied map[uuid.UUID]struct{}
}

// New creates Executor with a fresh ledger initialized by the given identity.
func New(initializer util.Uint160, opts ...Option) *Executor {
	e := &Executor{
		magic:   rand.Uint32(),
		log:     zap.NewNop(),
		ledger:  ledger.New(initializer),
		applied: make(map[uuid.UUID]struct{}),
	}

	for _, o := range opts {
		o(e)
	}

	e.log.Info("ledger initialized",
		zap.String("owner", address.Uint160ToString(initializer)),
		zap.Uint32("magic", e.magic))

	return e
}

// Magic returns the value invocations must be signed with, see
// Invocation.Sign.
func (e *Executor) Magic() uint32 {
	return e.magic
}

// Invoke applies the invocation. Error is returned if the invocation can't be
// accepted at all: context is done, the witness is missing or broken, or the
// state-changing invocation was already applied. Otherwise, the outcome
// including ledger failures is described by Result.
//
// Read-only methods may be invoked without a signature and may be repeated.
func (e *Executor) Invoke(ctx context.Context, inv *Invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		caller   util.Uint160
		m, known = methods[inv.Method]
		readOnly = known && m.safe
	)

	if !readOnly || inv.Signer != nil {
		var err error

		caller, err = inv.caller(e.magic)
		if err != nil {
			return nil, fmt.Errorf("invocation %s: %w", inv.ID, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !readOnly {
		if _, ok := e.applied[inv.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrReplayed, inv.ID)
		}

		e.applied[inv.ID] = struct{}{}
	}

	var res *Result

	item, err := e.dispatch(caller, inv.Method, inv.Params)
	if err != nil {
		res = faultResult(inv, caller, err)
	} else {
		res = haltResult(inv, caller, item, e.ledger.DrainEvents())
	}

	e.metrics.observe(inv.Method, res.State)
	e.log.Debug("invocation applied",
		zap.Stringer("id", inv.ID),
		zap.String("method", inv.Method),
		zap.String("caller", address.Uint160ToString(caller)),
		zap.Stringer("state", res.State),
		zap.String("exception", res.FaultException))

	if e.pub != nil {
		// Published under the lock to keep the order of events.
		for _, ev := range res.Events {
			if err := e.pub.Publish(ctx, ev); err != nil {
				e.log.Warn("failed to publish ledger event",
					zap.Stringer("invocation", inv.ID),
					zap.String("event", ev.Name()),
					zap.Error(err))
			}
		}
	}

	return res, nil
}

func (e *Executor) dispatch(caller util.Uint160, name string, params []stackitem.Item) (stackitem.Item, error) {
	m, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}

	if len(params) != m.nParams {
		return nil, fmt.Errorf("%w: %s expects %d, got %d", ErrInvalidParameters, name, m.nParams, len(params))
	}

	var (
		l   = e.ledger
		err error
	)

	switch name {
	case MethodCreateAccount:
		ev := l.CreateAccount(caller)
		return accountIDItem(ev.ID), nil
	case MethodSetContractOwner:
		var newOwner util.Uint160

		newOwner, err = identityParam(params[0])
		if err == nil {
			err = l.SetContractOwner(caller, newOwner)
		}
	case MethodDeposit, MethodWithdraw:
		var id, amount *big.Int

		id, err = integerParam(params[0], "account id")
		if err != nil {
			break
		}

		amount, err = integerParam(params[1], "amount")
		if err != nil {
			break
		}

		if name == MethodDeposit {
			err = l.Deposit(caller, accountID(id), amount)
		} else {
			err = l.Withdraw(caller, accountID(id), amount)
		}
	case MethodTransferFunds:
		var fromInt, toInt, amount *big.Int

		fromInt, err = integerParam(params[0], "account id")
		if err != nil {
			break
		}

		toInt, err = integerParam(params[1], "account id")
		if err != nil {
			break
		}

		amount, err = integerParam(params[2], "amount")
		if err != nil {
			break
		}

		from, to := accountID(fromInt), accountID(toInt)
		if from == to && fromInt.Cmp(toInt) != 0 {
			// Distinct ids out of the ledger range, neither of them exists.
			to = unknownAccountID
		}

		err = l.TransferFunds(caller, from, to, amount)
	case MethodGetAccountDetails:
		id, err := integerParam(params[0], "account id")
		if err != nil {
			return nil, err
		}

		acc, err := l.GetAccountDetails(accountID(id))
		if err != nil {
			return nil, err
		}

		return stackitem.NewStruct([]stackitem.Item{
			stackitem.NewByteArray(acc.Owner.BytesBE()),
			stackitem.NewBigInteger(acc.Balance),
		}), nil
	case MethodGetAccountBalance:
		id, err := integerParam(params[0], "account id")
		if err != nil {
			return nil, err
		}

		b, err := l.GetAccountBalance(accountID(id))
		if err != nil {
			return nil, err
		}

		return stackitem.NewBigInteger(b), nil
	case MethodContractOwner:
		return stackitem.NewByteArray(l.ContractOwner().BytesBE()), nil
	case MethodAccountsCounter:
		return accountIDItem(l.AccountsCounter()), nil
	case MethodVersion:
		return stackitem.Make(common.Version), nil
	}

	if err != nil {
		return nil, err
	}

	return stackitem.Null{}, nil
}

// unknownAccountID is never issued: the counter can't reach it.
const unknownAccountID = ledger.AccountID(math.MaxUint64)

func accountIDItem(id ledger.AccountID) stackitem.Item {
	return stackitem.NewBigInteger(new(big.Int).SetUint64(uint64(id)))
}

// accountID converts an integer parameter to the account id. Integers out of
// the id range are mapped to the zero id, so they're reported as unknown
// accounts like the contract does.
func accountID(bi *big.Int) ledger.AccountID {
	if !bi.IsUint64() {
		return 0
	}

	return ledger.AccountID(bi.Uint64())
}

func integerParam(item stackitem.Item, what string) (*big.Int, error) {
	bi, err := item.TryInteger()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, what, err)
	}

	return bi, nil
}

func identityParam(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, fmt.Errorf("%w: identity: %w", ErrInvalidParameters, err)
	}

	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("%w: identity: %w", ErrInvalidParameters, err)
	}

	return u, nil
}
