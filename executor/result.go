package executor

import (
	"github.com/google/uuid"
	"github.com/nspcc-dev/banking-contract/ledger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
)

// Result describes an applied invocation in the way Neo application logs do.
type Result struct {
	Invocation uuid.UUID
	// Caller is a zero hash for unsigned read-only invocations.
	Caller util.Uint160
	State  vmstate.State
	// FaultException is the failure message, empty on HALT.
	FaultException string
	// Err is the failure cause, use errors.Is with ledger categories.
	Err error
	// Stack holds the returned value on HALT.
	Stack  []stackitem.Item
	Events []ledger.Event
}

// Halted checks whether the invocation was successfully applied.
func (r *Result) Halted() bool {
	return r.State == vmstate.Halt
}

func haltResult(inv *Invocation, caller util.Uint160, item stackitem.Item, evs []ledger.Event) *Result {
	return &Result{
		Invocation: inv.ID,
		Caller:     caller,
		State:      vmstate.Halt,
		Stack:      []stackitem.Item{item},
		Events:     evs,
	}
}

func faultResult(inv *Invocation, caller util.Uint160, err error) *Result {
	return &Result{
		Invocation:     inv.ID,
		Caller:         caller,
		State:          vmstate.Fault,
		FaultException: err.Error(),
		Err:            err,
	}
}
