package executor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/nspcc-dev/banking-contract/banking/bankingconst"
	"github.com/nspcc-dev/banking-contract/common"
	"github.com/nspcc-dev/banking-contract/ledger"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type signer struct {
	key  *keys.PrivateKey
	hash util.Uint160
}

func newSigner(t *testing.T) signer {
	k, err := keys.NewPrivateKey()
	require.NoError(t, err)
	return signer{key: k, hash: k.PublicKey().GetScriptHash()}
}

type recorder struct {
	mu  sync.Mutex
	evs []ledger.Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev ledger.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
	return r.err
}

type testExecutor struct {
	*Executor
	t *testing.T
}

func newTestExecutor(t *testing.T, owner signer, opts ...Option) testExecutor {
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return testExecutor{New(owner.hash, opts...), t}
}

func (e testExecutor) invoke(s signer, method string, params ...any) *Result {
	inv := NewInvocation(method, params...)
	require.NoError(e.t, inv.Sign(s.key, e.Magic()))

	res, err := e.Invoke(context.Background(), inv)
	require.NoError(e.t, err)
	require.Equal(e.t, inv.ID, res.Invocation)
	require.Equal(e.t, s.hash, res.Caller)
	return res
}

// call performs unsigned read-only invocation.
func (e testExecutor) call(method string, params ...any) stackitem.Item {
	res, err := e.Invoke(context.Background(), NewInvocation(method, params...))
	require.NoError(e.t, err)
	require.True(e.t, res.Halted(), res.FaultException)
	require.Len(e.t, res.Stack, 1)
	return res.Stack[0]
}

func (e testExecutor) halt(s signer, expected stackitem.Item, method string, params ...any) *Result {
	res := e.invoke(s, method, params...)
	require.Equal(e.t, vmstate.Halt, res.State, res.FaultException)
	require.Equal(e.t, []stackitem.Item{expected}, res.Stack)
	return res
}

func (e testExecutor) fault(s signer, kind error, msg string, method string, params ...any) {
	res := e.invoke(s, method, params...)
	require.Equal(e.t, vmstate.Fault, res.State)
	require.Equal(e.t, msg, res.FaultException)
	require.ErrorIs(e.t, res.Err, kind)
	require.Empty(e.t, res.Stack)
	require.Empty(e.t, res.Events)
}

func (e testExecutor) balance(id int64, expected *big.Int) {
	e.t.Helper()
	require.Equal(e.t, stackitem.NewBigInteger(expected), e.call(MethodGetAccountBalance, id))
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func halfEther() *big.Int {
	return big.NewInt(500_000_000_000_000_000)
}

func TestExecutor_Scenario(t *testing.T) {
	var (
		owner    = newSigner(t)
		account2 = newSigner(t)
		account3 = newSigner(t)
		pub      = new(recorder)
		e        = newTestExecutor(t, owner, WithPublisher(pub))
	)

	require.Equal(t, stackitem.NewByteArray(owner.hash.BytesBE()), e.call(MethodContractOwner))
	require.Equal(t, stackitem.Make(0), e.call(MethodAccountsCounter))

	res := e.halt(account2, stackitem.Make(1), MethodCreateAccount)
	require.Equal(t, []ledger.Event{ledger.AccountCreated{
		ID:      1,
		Owner:   account2.hash,
		Balance: new(big.Int),
	}}, res.Events)
	require.Equal(t, stackitem.Make(1), e.call(MethodAccountsCounter))
	require.Equal(t, stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(account2.hash.BytesBE()),
		stackitem.Make(0),
	}), e.call(MethodGetAccountDetails, 1))

	e.halt(account2, stackitem.Null{}, MethodDeposit, 1, ether(2))
	e.balance(1, ether(2))
	e.halt(account2, stackitem.Null{}, MethodDeposit, 1, ether(2))
	e.balance(1, ether(4))

	e.halt(account2, stackitem.Null{}, MethodWithdraw, 1, ether(3))
	e.balance(1, ether(1))

	e.halt(account3, stackitem.Make(2), MethodCreateAccount)

	e.halt(account2, stackitem.Null{}, MethodTransferFunds, 1, 2, halfEther())
	e.balance(1, halfEther())
	e.balance(2, halfEther())

	require.Len(t, pub.evs, 2)
	require.Equal(t, account3.hash, pub.evs[1].(ledger.AccountCreated).Owner)
}

func TestExecutor_Failures(t *testing.T) {
	var (
		owner    = newSigner(t)
		account2 = newSigner(t)
		account3 = newSigner(t)
		e        = newTestExecutor(t, owner)
	)

	e.halt(account2, stackitem.Make(1), MethodCreateAccount)
	e.halt(account3, stackitem.Make(2), MethodCreateAccount)
	e.halt(account2, stackitem.Null{}, MethodDeposit, 1, ether(1))

	t.Run("contract owner", func(t *testing.T) {
		e.fault(account3, ledger.ErrUnauthorized, bankingconst.ErrNotContractOwner,
			MethodSetContractOwner, owner.hash)
		require.Equal(t, stackitem.NewByteArray(owner.hash.BytesBE()), e.call(MethodContractOwner))

		e.halt(owner, stackitem.Null{}, MethodSetContractOwner, account2.hash)
		require.Equal(t, stackitem.NewByteArray(account2.hash.BytesBE()), e.call(MethodContractOwner))

		e.fault(owner, ledger.ErrUnauthorized, bankingconst.ErrNotContractOwner,
			MethodSetContractOwner, owner.hash)
	})

	t.Run("deposit", func(t *testing.T) {
		e.fault(account2, ledger.ErrInvalidAmount, bankingconst.ErrDepositAmount, MethodDeposit, 1, 0)
		e.fault(account3, ledger.ErrUnauthorized, bankingconst.ErrNotAccountOwner, MethodDeposit, 1, ether(7))
		e.fault(account2, ledger.ErrNotFound, bankingconst.ErrAccountNotFound, MethodDeposit, 3, 1)
		e.fault(account2, ledger.ErrNotFound, bankingconst.ErrAccountNotFound, MethodDeposit, -1, 1)
		e.balance(1, ether(1))
	})

	t.Run("withdraw", func(t *testing.T) {
		e.fault(owner, ledger.ErrUnauthorized, bankingconst.ErrNotWithdrawOwner, MethodWithdraw, 1, halfEther())
		e.fault(account2, ledger.ErrInsufficientFunds, bankingconst.ErrInsufficientBalance, MethodWithdraw, 1, ether(2))
		e.fault(account2, ledger.ErrInvalidAmount, bankingconst.ErrWithdrawAmount, MethodWithdraw, 1, -1)
		e.halt(account2, stackitem.Null{}, MethodWithdraw, 1, 0)
		e.balance(1, ether(1))
	})

	t.Run("transfer", func(t *testing.T) {
		e.fault(account2, ledger.ErrInvalidAmount, bankingconst.ErrTransferAmount, MethodTransferFunds, 1, 2, 0)
		e.fault(account2, ledger.ErrSameAccount, bankingconst.ErrSameAccount, MethodTransferFunds, 1, 1, halfEther())
		e.fault(account2, ledger.ErrUnauthorized, bankingconst.ErrNotAccountOwner, MethodTransferFunds, 2, 1, halfEther())
		e.fault(account2, ledger.ErrInsufficientFunds, bankingconst.ErrInsufficientBalance, MethodTransferFunds, 1, 2, ether(2))
		e.fault(account2, ledger.ErrNotFound, bankingconst.ErrAccountNotFound, MethodTransferFunds, 1, 3, halfEther())
		e.fault(account2, ledger.ErrNotFound, bankingconst.ErrAccountNotFound, MethodTransferFunds, -1, -2, halfEther())
		e.fault(account2, ledger.ErrNotFound, bankingconst.ErrAccountNotFound, MethodTransferFunds, 1, -1, halfEther())
		e.fault(account2, ledger.ErrSameAccount, bankingconst.ErrSameAccount, MethodTransferFunds, -1, -1, halfEther())
		e.fault(account2, ledger.ErrInvalidAmount, bankingconst.ErrTransferAmount, MethodTransferFunds, -1, -2, 0)
		e.balance(1, ether(1))
		e.balance(2, new(big.Int))
	})

	t.Run("unknown account reads", func(t *testing.T) {
		for _, method := range []string{MethodGetAccountBalance, MethodGetAccountDetails} {
			res, err := e.Invoke(context.Background(), NewInvocation(method, 3))
			require.NoError(t, err)
			require.Equal(t, vmstate.Fault, res.State)
			require.Equal(t, bankingconst.ErrAccountNotFound, res.FaultException)
		}
	})

	t.Run("malformed invocations", func(t *testing.T) {
		e.fault(account2, ErrMethodNotFound, "method not found: burn", "burn")
		e.fault(account2, ErrInvalidParameters, "invalid parameters: deposit expects 2, got 1", MethodDeposit, 1)

		res := e.invoke(account2, MethodDeposit, []any{1}, 1)
		require.Equal(t, vmstate.Fault, res.State)
		require.ErrorIs(t, res.Err, ErrInvalidParameters)

		res = e.invoke(owner, MethodSetContractOwner, []byte{1, 2, 3})
		require.Equal(t, vmstate.Fault, res.State)
		require.ErrorIs(t, res.Err, ErrInvalidParameters)

		e.balance(1, ether(1))
	})
}

func TestExecutor_Witness(t *testing.T) {
	var (
		owner    = newSigner(t)
		account2 = newSigner(t)
		e        = newTestExecutor(t, owner)
		ctx      = context.Background()
	)

	t.Run("missing", func(t *testing.T) {
		_, err := e.Invoke(ctx, NewInvocation(MethodCreateAccount))
		require.ErrorIs(t, err, ErrMissingWitness)

		_, err = e.Invoke(ctx, NewInvocation("unknown"))
		require.ErrorIs(t, err, ErrMissingWitness)
	})

	t.Run("tampered", func(t *testing.T) {
		inv := NewInvocation(MethodDeposit, 1, 10)
		require.NoError(t, inv.Sign(account2.key, e.Magic()))
		inv.Params[1] = stackitem.Make(1000)

		_, err := e.Invoke(ctx, inv)
		require.ErrorIs(t, err, ErrInvalidWitness)
	})

	t.Run("foreign signer", func(t *testing.T) {
		inv := NewInvocation(MethodSetContractOwner, account2.hash)
		require.NoError(t, inv.Sign(account2.key, e.Magic()))
		inv.Signer = owner.key.PublicKey()

		_, err := e.Invoke(ctx, inv)
		require.ErrorIs(t, err, ErrInvalidWitness)
		require.Equal(t, stackitem.NewByteArray(owner.hash.BytesBE()), e.call(MethodContractOwner))
	})

	t.Run("signed read", func(t *testing.T) {
		res := e.invoke(account2, MethodContractOwner)
		require.True(t, res.Halted())
	})

	t.Run("repeated read", func(t *testing.T) {
		inv := NewInvocation(MethodAccountsCounter)
		for range 2 {
			res, err := e.Invoke(ctx, inv)
			require.NoError(t, err)
			require.True(t, res.Halted())
		}

		require.NoError(t, inv.Sign(account2.key, e.Magic()))
		for range 2 {
			res, err := e.Invoke(ctx, inv)
			require.NoError(t, err)
			require.True(t, res.Halted())
		}

		e.mu.Lock()
		require.Empty(t, e.applied)
		e.mu.Unlock()
	})

	t.Run("other executor", func(t *testing.T) {
		other := New(owner.hash, WithMagic(e.Magic()+1))
		require.Equal(t, e.Magic()+1, other.Magic())

		inv := NewInvocation(MethodCreateAccount)
		require.NoError(t, inv.Sign(account2.key, other.Magic()))

		_, err := e.Invoke(ctx, inv)
		require.ErrorIs(t, err, ErrInvalidWitness)

		res, err := other.Invoke(ctx, inv)
		require.NoError(t, err)
		require.True(t, res.Halted())
		require.Equal(t, stackitem.Make(0), e.call(MethodAccountsCounter))
	})

	t.Run("replay", func(t *testing.T) {
		inv := NewInvocation(MethodCreateAccount)
		require.NoError(t, inv.Sign(account2.key, e.Magic()))

		res, err := e.Invoke(ctx, inv)
		require.NoError(t, err)
		require.True(t, res.Halted())

		_, err = e.Invoke(ctx, inv)
		require.ErrorIs(t, err, ErrReplayed)
		require.Equal(t, stackitem.Make(1), e.call(MethodAccountsCounter))
	})

	t.Run("done context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		inv := NewInvocation(MethodCreateAccount)
		require.NoError(t, inv.Sign(account2.key, e.Magic()))

		_, err := e.Invoke(cctx, inv)
		require.ErrorIs(t, err, context.Canceled)

		// The invocation wasn't consumed.
		res, err := e.Invoke(ctx, inv)
		require.NoError(t, err)
		require.True(t, res.Halted())
	})
}

func TestExecutor_Version(t *testing.T) {
	e := newTestExecutor(t, newSigner(t))
	require.Equal(t, stackitem.Make(common.Version), e.call(MethodVersion))
}

func TestExecutor_PublisherFailure(t *testing.T) {
	var (
		owner = newSigner(t)
		pub   = &recorder{err: errors.New("broker is down")}
		e     = newTestExecutor(t, owner, WithPublisher(pub))
	)

	res := e.halt(owner, stackitem.Make(1), MethodCreateAccount)
	require.Len(t, res.Events, 1)
	require.Len(t, pub.evs, 1)
	require.Equal(t, stackitem.Make(1), e.call(MethodAccountsCounter))
}

func TestExecutor_Concurrent(t *testing.T) {
	var (
		owner = newSigner(t)
		e     = newTestExecutor(t, owner)
	)

	const (
		workers = 8
		rounds  = 50
	)

	var (
		wg      sync.WaitGroup
		signers = make([]signer, workers)
	)

	for i := range signers {
		signers[i] = newSigner(t)
		e.halt(signers[i], stackitem.Make(i+1), MethodCreateAccount)
		e.halt(signers[i], stackitem.Null{}, MethodDeposit, i+1, 1000)
	}

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := range rounds {
				inv := NewInvocation(MethodTransferFunds, i+1, (i+j)%workers+1, 3)
				if err := inv.Sign(signers[i].key, e.Magic()); err != nil {
					t.Error(err)
					return
				}

				if _, err := e.Invoke(context.Background(), inv); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	wg.Wait()

	total := new(big.Int)
	for i := range workers {
		b, err := e.call(MethodGetAccountBalance, i+1).TryInteger()
		require.NoError(t, err)
		require.True(t, b.Sign() >= 0)
		total.Add(total, b)
	}

	require.EqualValues(t, workers*1000, total.Int64())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	require.Error(t, err)

	var (
		owner = newSigner(t)
		e     = newTestExecutor(t, owner, WithMetrics(m))
	)

	e.halt(owner, stackitem.Make(1), MethodCreateAccount)
	e.halt(owner, stackitem.Null{}, MethodDeposit, 1, 5)
	e.fault(owner, ledger.ErrInvalidAmount, bankingconst.ErrDepositAmount, MethodDeposit, 1, 0)
	e.fault(owner, ErrMethodNotFound, "method not found: mint", "mint", 1)

	require.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues(MethodCreateAccount, "HALT")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues(MethodDeposit, "HALT")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues(MethodDeposit, "FAULT")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("unknown", "FAULT")))
}
