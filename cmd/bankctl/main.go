package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nspcc-dev/banking-contract/common"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	rpcFlags = []cli.Flag{
		cli.StringFlag{
			Name:   "rpc, r",
			Usage:  "Network address of the Neo RPC server",
			EnvVar: "BANKCTL_RPC",
		},
		cli.StringFlag{
			Name:   "contract, c",
			Usage:  "Banking contract address or script hash",
			EnvVar: "BANKCTL_CONTRACT",
		},
	}

	walletFlags = []cli.Flag{
		cli.StringFlag{
			Name:   "wallet, w",
			Usage:  "Path to the NEP-6 wallet signing transactions",
			EnvVar: "BANKCTL_WALLET",
		},
		cli.StringFlag{
			Name:   "address, a",
			Usage:  "Wallet account address, default one if not set",
			EnvVar: "BANKCTL_ADDRESS",
		},
		cli.StringFlag{
			Name:   "password, p",
			Usage:  "Wallet account password",
			EnvVar: "BANKCTL_PASSWORD",
		},
	}

	decimalsFlag = cli.IntFlag{
		Name:  "decimals",
		Usage: "Number of decimal places of amounts",
		Value: defaultDecimals,
	}
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bankctl"
	app.Usage = "Banking ledger contract client"
	app.Version = fmt.Sprintf("%d.%d.%d", common.Version/1_000_000, common.Version/1_000%1_000, common.Version%1_000)
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "Enable debug logging",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "create-account",
			Usage:  "Open a new account owned by the wallet account",
			Flags:  join(rpcFlags, walletFlags),
			Action: createAccount,
		},
		{
			Name:      "deposit",
			Usage:     "Deposit funds to the account",
			ArgsUsage: "ID AMOUNT",
			Flags:     join(rpcFlags, walletFlags, []cli.Flag{decimalsFlag}),
			Action:    deposit,
		},
		{
			Name:      "withdraw",
			Usage:     "Withdraw funds from the account",
			ArgsUsage: "ID AMOUNT",
			Flags:     join(rpcFlags, walletFlags, []cli.Flag{decimalsFlag}),
			Action:    withdraw,
		},
		{
			Name:      "transfer",
			Usage:     "Transfer funds between accounts",
			ArgsUsage: "FROM_ID TO_ID AMOUNT",
			Flags:     join(rpcFlags, walletFlags, []cli.Flag{decimalsFlag}),
			Action:    transfer,
		},
		{
			Name:      "set-owner",
			Usage:     "Pass the contract owner role",
			ArgsUsage: "ADDRESS",
			Flags:     join(rpcFlags, walletFlags),
			Action:    setOwner,
		},
		{
			Name:      "balance",
			Usage:     "Print account balance",
			ArgsUsage: "ID",
			Flags:     join(rpcFlags, []cli.Flag{decimalsFlag}),
			Action:    balance,
		},
		{
			Name:      "details",
			Usage:     "Print account owner and balance",
			ArgsUsage: "ID",
			Flags:     join(rpcFlags, []cli.Flag{decimalsFlag}),
			Action:    details,
		},
		{
			Name:   "owner",
			Usage:  "Print the contract owner",
			Flags:  rpcFlags,
			Action: contractOwner,
		},
		{
			Name:   "counter",
			Usage:  "Print the number of created accounts",
			Flags:  rpcFlags,
			Action: accountsCounter,
		},
		{
			Name:  "dump",
			Usage: "Dump contract storage as CSV",
			Flags: join(rpcFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "Output file, stdout if not set",
				},
			}),
			Action: dumpStorage,
		},
		{
			Name:  "demo",
			Usage: "Run a sample scenario on the in-process ledger",
			Flags: []cli.Flag{
				decimalsFlag,
				cli.StringFlag{
					Name:   "kafka-brokers",
					Usage:  "Comma-separated Kafka brokers to publish ledger events to",
					EnvVar: "BANKCTL_KAFKA_BROKERS",
				},
				cli.StringFlag{
					Name:  "kafka-topic",
					Usage: "Kafka topic for ledger events",
				},
				cli.StringFlag{
					Name:  "metrics-file",
					Usage: "File to write invocation metrics to in Prometheus text format",
				},
			},
			Action: demo,
		},
	}

	return app
}

func join(sets ...[]cli.Flag) []cli.Flag {
	var res []cli.Flag
	for i := range sets {
		res = append(res, sets[i]...)
	}
	return res
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	if c.GlobalBool("debug") {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func splitList(s string) []string {
	var res []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
