package executor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

var (
	// ErrMissingWitness is returned for state-changing invocations without a
	// signature.
	ErrMissingWitness = errors.New("missing witness")
	// ErrInvalidWitness is returned when the invocation signature doesn't
	// match its signer.
	ErrInvalidWitness = errors.New("invalid witness")
)

// Invocation is a request to call one ledger method. State-changing
// invocations must be signed, the signer's script hash becomes the caller
// identity.
type Invocation struct {
	// ID makes every invocation unique, executor refuses to apply the same
	// ID twice.
	ID     uuid.UUID
	Method string
	Params []stackitem.Item

	Signer    *keys.PublicKey
	Signature []byte
}

// NewInvocation creates an unsigned invocation with a random ID. Parameters
// are converted with stackitem.Make, so account ids and amounts can be passed
// as integers or *big.Int, identities as util.Uint160.
func NewInvocation(method string, params ...any) *Invocation {
	items := make([]stackitem.Item, len(params))
	for i := range params {
		items[i] = stackitem.Make(params[i])
	}

	return &Invocation{
		ID:     uuid.New(),
		Method: method,
		Params: items,
	}
}

// SignedData returns the part of invocation covered by the signature:
// executor magic, ID, method name and serialized parameters. Magic binds the
// signature to one Executor the way network magic binds Neo transactions to
// one network.
func (x *Invocation) SignedData(magic uint32) ([]byte, error) {
	params, err := stackitem.Serialize(stackitem.NewArray(x.Params))
	if err != nil {
		return nil, fmt.Errorf("serialize parameters: %w", err)
	}

	w := io.NewBufBinWriter()
	w.WriteU32LE(magic)
	w.WriteBytes(x.ID[:])
	w.WriteString(x.Method)
	w.WriteVarBytes(params)
	if w.Err != nil {
		return nil, w.Err
	}

	return w.Bytes(), nil
}

// Sign signs the invocation with the given key for the Executor with the
// given magic (see Executor.Magic). Any modification of the invocation after
// signing invalidates the signature.
func (x *Invocation) Sign(key *keys.PrivateKey, magic uint32) error {
	data, err := x.SignedData(magic)
	if err != nil {
		return err
	}

	x.Signer = key.PublicKey()
	x.Signature = key.Sign(data)

	return nil
}

// caller checks the witness and returns the signer's script hash.
func (x *Invocation) caller(magic uint32) (util.Uint160, error) {
	if x.Signer == nil || len(x.Signature) == 0 {
		return util.Uint160{}, ErrMissingWitness
	}

	data, err := x.SignedData(magic)
	if err != nil {
		return util.Uint160{}, err
	}

	if !x.Signer.Verify(x.Signature, hash.Sha256(data).BytesBE()) {
		return util.Uint160{}, ErrInvalidWitness
	}

	return x.Signer.GetScriptHash(), nil
}
