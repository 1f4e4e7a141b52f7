package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/nspcc-dev/banking-contract/events/kafka"
	"github.com/nspcc-dev/banking-contract/executor"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var errMissingArgs = errors.New("missing arguments")

// connect dials the RPC server, transactions are signed by the wallet account
// if sign is set.
func connect(c *cli.Context, sign bool) (*remoteBlockchain, error) {
	endpoint := c.String("rpc")
	if endpoint == "" {
		return nil, errors.New("missing Neo RPC endpoint")
	}

	if c.String("contract") == "" {
		return nil, errors.New("missing contract")
	}

	contract, err := parseHash160(c.String("contract"))
	if err != nil {
		return nil, err
	}

	var acc *wallet.Account
	if sign {
		acc, err = openAccount(c.String("wallet"), c.String("address"), c.String("password"))
		if err != nil {
			return nil, err
		}
	}

	return newRemoteBlockchain(context.Background(), endpoint, contract, acc)
}

func openAccount(path, addr, password string) (*wallet.Account, error) {
	if path == "" {
		return nil, errors.New("missing wallet")
	}

	w, err := wallet.NewWalletFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	var acc *wallet.Account
	if addr == "" {
		if len(w.Accounts) == 0 {
			return nil, errors.New("wallet has no accounts")
		}
		acc = w.Accounts[0]
	} else {
		u, err := address.StringToUint160(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", addr, err)
		}

		acc = w.GetAccount(u)
		if acc == nil {
			return nil, fmt.Errorf("account %s not found in the wallet", addr)
		}
	}

	err = acc.Decrypt(password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	return acc, nil
}

// args parses n positional arguments: account ids followed by an optional
// amount if withAmount is set.
func args(c *cli.Context, ids int, withAmount bool) ([]*big.Int, error) {
	n := ids
	if withAmount {
		n++
	}

	if c.NArg() != n {
		return nil, fmt.Errorf("%w: expected %d, got %d", errMissingArgs, n, c.NArg())
	}

	res := make([]*big.Int, 0, n)
	for i := 0; i < ids; i++ {
		id, err := parseAccountID(c.Args().Get(i))
		if err != nil {
			return nil, err
		}
		res = append(res, id)
	}

	if withAmount {
		amount, err := parseAmount(c.Args().Get(ids), int32(c.Int("decimals")))
		if err != nil {
			return nil, err
		}
		res = append(res, amount)
	}

	return res, nil
}

func createAccount(c *cli.Context) error {
	b, err := connect(c, true)
	if err != nil {
		return err
	}
	defer b.close()

	id, err := b.createAccount()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, id)
	return nil
}

func deposit(c *cli.Context) error {
	a, err := args(c, 1, true)
	if err != nil {
		return err
	}

	return send(c, func(b *remoteBlockchain) (util.Uint256, uint32, error) {
		return b.contract.Deposit(a[0], a[1])
	})
}

func withdraw(c *cli.Context) error {
	a, err := args(c, 1, true)
	if err != nil {
		return err
	}

	return send(c, func(b *remoteBlockchain) (util.Uint256, uint32, error) {
		return b.contract.Withdraw(a[0], a[1])
	})
}

func transfer(c *cli.Context) error {
	a, err := args(c, 2, true)
	if err != nil {
		return err
	}

	return send(c, func(b *remoteBlockchain) (util.Uint256, uint32, error) {
		return b.contract.TransferFunds(a[0], a[1], a[2])
	})
}

func setOwner(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: expected new owner", errMissingArgs)
	}

	owner, err := parseHash160(c.Args().First())
	if err != nil {
		return err
	}

	return send(c, func(b *remoteBlockchain) (util.Uint256, uint32, error) {
		return b.contract.SetContractOwner(owner)
	})
}

func send(c *cli.Context, f func(*remoteBlockchain) (util.Uint256, uint32, error)) error {
	b, err := connect(c, true)
	if err != nil {
		return err
	}
	defer b.close()

	log, err := b.await(f(b))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, log.Container.StringLE())
	return nil
}

func balance(c *cli.Context) error {
	a, err := args(c, 1, false)
	if err != nil {
		return err
	}

	b, err := connect(c, false)
	if err != nil {
		return err
	}
	defer b.close()

	v, err := b.contract.GetAccountBalance(a[0])
	if err != nil {
		return fmt.Errorf("get balance of %s: %w", a[0], err)
	}

	fmt.Fprintln(c.App.Writer, formatAmount(v, int32(c.Int("decimals"))))
	return nil
}

func details(c *cli.Context) error {
	a, err := args(c, 1, false)
	if err != nil {
		return err
	}

	b, err := connect(c, false)
	if err != nil {
		return err
	}
	defer b.close()

	acc, err := b.contract.GetAccountDetails(a[0])
	if err != nil {
		return fmt.Errorf("get details of %s: %w", a[0], err)
	}

	fmt.Fprintf(c.App.Writer, "owner: %s\nbalance: %s\n",
		address.Uint160ToString(acc.Owner), formatAmount(acc.Balance, int32(c.Int("decimals"))))
	return nil
}

func contractOwner(c *cli.Context) error {
	b, err := connect(c, false)
	if err != nil {
		return err
	}
	defer b.close()

	owner, err := b.contract.ContractOwner()
	if err != nil {
		return fmt.Errorf("get contract owner: %w", err)
	}

	fmt.Fprintln(c.App.Writer, address.Uint160ToString(owner))
	return nil
}

func accountsCounter(c *cli.Context) error {
	b, err := connect(c, false)
	if err != nil {
		return err
	}
	defer b.close()

	n, err := b.contract.AccountsCounter()
	if err != nil {
		return fmt.Errorf("get accounts counter: %w", err)
	}

	fmt.Fprintln(c.App.Writer, n)
	return nil
}

func dumpStorage(c *cli.Context) error {
	b, err := connect(c, false)
	if err != nil {
		return err
	}
	defer b.close()

	out := c.App.Writer
	if p := c.String("out"); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()

		out = f
	}

	d := newStorageDumper(out)

	err = d.writeHeader()
	if err != nil {
		return err
	}

	err = b.iterateContractStorage(d.Write)
	if err != nil {
		return err
	}

	return d.Flush()
}

func demo(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()

	m, err := executor.NewMetrics(reg)
	if err != nil {
		return err
	}

	opts := []executor.Option{
		executor.WithLogger(log),
		executor.WithMetrics(m),
	}

	if brokers := splitList(c.String("kafka-brokers")); len(brokers) > 0 {
		p := kafka.NewPublisher(brokers, c.String("kafka-topic"))
		defer func() {
			if err := p.Close(); err != nil {
				log.Warn("failed to close Kafka publisher", zap.Error(err))
			}
		}()

		opts = append(opts, executor.WithPublisher(p))
	}

	err = runDemo(context.Background(), c.App.Writer, int32(c.Int("decimals")), opts...)
	if err != nil {
		return err
	}

	if p := c.String("metrics-file"); p != "" {
		err = prometheus.WriteToTextfile(p, reg)
		if err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}
