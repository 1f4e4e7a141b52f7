package main

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/shopspring/decimal"
)

// defaultDecimals is the precision of amounts passed to and printed by
// bankctl, ledger itself works with base units.
const defaultDecimals = 18

var errPrecision = errors.New("amount precision exceeds decimals")

// parseAmount converts a human-readable decimal amount into base units.
func parseAmount(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	d = d.Shift(decimals)
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount %q: %w", s, errPrecision)
	}

	return d.BigInt(), nil
}

// formatAmount renders base units as a decimal amount.
func formatAmount(v *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(v, -decimals).String()
}

// parseAccountID parses decimal account id.
func parseAccountID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() <= 0 {
		return nil, fmt.Errorf("invalid account id %q", s)
	}

	return id, nil
}

// parseHash160 accepts either a Neo address or a hex-encoded LE script hash.
func parseHash160(s string) (util.Uint160, error) {
	if u, err := address.StringToUint160(s); err == nil {
		return u, nil
	}

	u, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid address or script hash %q", s)
	}

	return u, nil
}
