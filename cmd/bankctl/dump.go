package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Storage keys of Banking contract.
const (
	ownerKey      = "owner"
	counterKey    = "counter"
	accountPrefix = "a"
)

// storageDumper writes Banking contract storage items as decoded CSV records
// 'kind,id,owner,balance'. Owner is a Neo address, balance is in base units.
type storageDumper struct {
	csv *csv.Writer
}

func newStorageDumper(w io.Writer) *storageDumper {
	return &storageDumper{csv: csv.NewWriter(w)}
}

func (x *storageDumper) writeHeader() error {
	return x.csv.Write([]string{"kind", "id", "owner", "balance"})
}

// Write decodes the storage item and saves it as CSV record.
func (x *storageDumper) Write(key, value []byte) error {
	rec, err := decodeStorageItem(key, value)
	if err != nil {
		return fmt.Errorf("decode storage item %q: %w", key, err)
	}

	err = x.csv.Write(rec)
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}

	return nil
}

// Flush writes buffered records to the underlying writer.
func (x *storageDumper) Flush() error {
	x.csv.Flush()

	err := x.csv.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

func decodeStorageItem(key, value []byte) ([]string, error) {
	switch k := string(key); {
	case k == ownerKey:
		u, err := util.Uint160DecodeBytesBE(value)
		if err != nil {
			return nil, err
		}

		return []string{ownerKey, "", address.Uint160ToString(u), ""}, nil
	case k == counterKey:
		id := "0"
		if len(value) != 0 {
			id = bigint.FromBytes(value).String()
		}

		return []string{counterKey, id, "", ""}, nil
	case strings.HasPrefix(k, accountPrefix):
		item, err := stackitem.Deserialize(value)
		if err != nil {
			return nil, err
		}

		fields, ok := item.Value().([]stackitem.Item)
		if !ok || len(fields) != 2 {
			return nil, fmt.Errorf("unexpected account structure %s", item.Type())
		}

		b, err := fields[0].TryBytes()
		if err != nil {
			return nil, fmt.Errorf("account owner: %w", err)
		}

		owner, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return nil, fmt.Errorf("account owner: %w", err)
		}

		balance, err := fields[1].TryInteger()
		if err != nil {
			return nil, fmt.Errorf("account balance: %w", err)
		}

		return []string{"account", strings.TrimPrefix(k, accountPrefix), address.Uint160ToString(owner), balance.String()}, nil
	default:
		return nil, errors.New("unknown key")
	}
}
