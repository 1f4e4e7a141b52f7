package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/banking-contract/rpc/banking"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

const rpcTimeout = 15 * time.Second

// wrapper over rpcNeo providing Banking contract services needed for bankctl
// commands.
type remoteBlockchain struct {
	rpc   *rpcclient.Client
	actor *actor.Actor

	hash     util.Uint160
	contract *banking.Contract
}

// newRemoteBlockchain dials Neo RPC server and returns remoteBlockchain based
// on the opened connection. Transactions are signed by acc, nil acc means
// read-only usage and a random account is generated for it. Connection and
// all requests are done within 15s timeout.
func newRemoteBlockchain(ctx context.Context, endpoint string, contract util.Uint160, acc *wallet.Account) (*remoteBlockchain, error) {
	if acc == nil {
		var err error

		acc, err = wallet.NewAccount()
		if err != nil {
			return nil, fmt.Errorf("generate new Neo account: %w", err)
		}
	}

	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    rpcTimeout,
		RequestTimeout: rpcTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init actor: %w", err)
	}

	return &remoteBlockchain{
		rpc:      c,
		actor:    act,
		hash:     contract,
		contract: banking.New(act, contract),
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// await waits for the transaction sent by one of contract methods to be
// accepted and checks it succeeded.
func (x *remoteBlockchain) await(h util.Uint256, vub uint32, err error) (*result.ApplicationLog, error) {
	res, err := x.actor.Wait(h, vub, err)
	if err != nil {
		return nil, fmt.Errorf("wait for transaction %s: %w", h.StringLE(), err)
	}

	if res.VMState != vmstate.Halt {
		return nil, fmt.Errorf("transaction %s failed: %s", h.StringLE(), res.FaultException)
	}

	return &result.ApplicationLog{
		Container:     res.Container,
		IsTransaction: true,
		Executions:    []state.Execution{res.Execution},
	}, nil
}

// createAccount opens a new account on behalf of the actor and returns its id.
func (x *remoteBlockchain) createAccount() (uint64, error) {
	log, err := x.await(x.contract.CreateAccount())
	if err != nil {
		return 0, err
	}

	evs, err := banking.AccountCreatedEventsFromApplicationLog(log)
	if err != nil {
		return 0, err
	}

	if len(evs) != 1 {
		return 0, errors.New("no account creation event in the transaction")
	}

	return evs[0].ID.Uint64(), nil
}

// iterateContractStorage iterates over all storage items of the Banking
// contract and passes them into f.
// iterateContractStorage breaks on any f's error and returns it.
func (x *remoteBlockchain) iterateContractStorage(f func(key, value []byte) error) error {
	nLatestBlock, err := x.actor.GetBlockCount()
	if err != nil {
		return fmt.Errorf("get number of the latest block: %w", err)
	}

	stateRoot, err := x.rpc.GetStateRootByHeight(nLatestBlock - 1)
	if err != nil {
		return fmt.Errorf("get state root at penult block #%d: %w", nLatestBlock-1, err)
	}

	var start []byte

	for {
		res, err := x.rpc.FindStates(stateRoot.Root, x.hash, nil, start, nil)
		if err != nil {
			return fmt.Errorf("get historical storage items of the requested contract at state root '%s': %w", stateRoot.Root, err)
		}

		for i := range res.Results {
			err = f(res.Results[i].Key, res.Results[i].Value)
			if err != nil {
				return err
			}
		}

		if !res.Truncated {
			return nil
		}

		start = res.Results[len(res.Results)-1].Key
	}
}
