package main

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/nspcc-dev/banking-contract/executor"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
)

type demoRunner struct {
	ctx      context.Context
	exec     *executor.Executor
	out      io.Writer
	decimals int32
}

// runDemo plays the reference scenario on an in-process ledger: account2
// opens account 1, deposits 2 twice and withdraws 3, account3 opens account 2
// and receives 0.5 from account 1. A forbidden withdrawal is shown as well.
func runDemo(ctx context.Context, out io.Writer, decimals int32, opts ...executor.Option) error {
	var signers [3]*keys.PrivateKey
	for i := range signers {
		k, err := keys.NewPrivateKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		signers[i] = k
	}

	owner, account2, account3 := signers[0], signers[1], signers[2]

	amounts := make(map[string]*big.Int)
	for _, s := range []string{"2", "3", "1", "0.5"} {
		v, err := parseAmount(s, decimals)
		if err != nil {
			return fmt.Errorf("demo amounts: %w", err)
		}
		amounts[s] = v
	}

	d := demoRunner{
		ctx:      ctx,
		exec:     executor.New(owner.GetScriptHash(), opts...),
		out:      out,
		decimals: decimals,
	}

	for _, k := range signers {
		fmt.Fprintf(out, "identity %s\n", address.Uint160ToString(k.GetScriptHash()))
	}

	for _, st := range []struct {
		signer *keys.PrivateKey
		method string
		params []any
	}{
		{account2, executor.MethodCreateAccount, nil},
		{account2, executor.MethodDeposit, []any{1, amounts["2"]}},
		{account2, executor.MethodDeposit, []any{1, amounts["2"]}},
		{account2, executor.MethodWithdraw, []any{1, amounts["3"]}},
		{account3, executor.MethodCreateAccount, nil},
		{account3, executor.MethodWithdraw, []any{1, amounts["1"]}},
		{account2, executor.MethodTransferFunds, []any{1, 2, amounts["0.5"]}},
	} {
		if err := d.invoke(st.signer, st.method, st.params...); err != nil {
			return err
		}
	}

	for id := 1; id <= 2; id++ {
		res, err := d.exec.Invoke(ctx, executor.NewInvocation(executor.MethodGetAccountBalance, id))
		if err != nil {
			return err
		}

		if !res.Halted() {
			return fmt.Errorf("read balance of %d: %s", id, res.FaultException)
		}

		b, err := res.Stack[0].TryInteger()
		if err != nil {
			return fmt.Errorf("read balance of %d: %w", id, err)
		}

		fmt.Fprintf(out, "account %d balance %s\n", id, formatAmount(b, decimals))
	}

	return nil
}

func (d demoRunner) invoke(k *keys.PrivateKey, method string, params ...any) error {
	inv := executor.NewInvocation(method, params...)
	if err := inv.Sign(k, d.exec.Magic()); err != nil {
		return fmt.Errorf("sign %s: %w", method, err)
	}

	res, err := d.exec.Invoke(d.ctx, inv)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", method, err)
	}

	if res.Halted() {
		fmt.Fprintf(d.out, "%-16s %s\n", method, res.State)
	} else {
		fmt.Fprintf(d.out, "%-16s %s: %s\n", method, res.State, res.FaultException)
	}

	return nil
}
