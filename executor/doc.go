/*
Package executor provides an in-process execution environment for the ledger.

Executor accepts invocations shaped after Neo contract calls: a method name,
stack item parameters and a witness (public key and signature over the
invocation). The witness signer's script hash is the caller identity passed to
the ledger, so callers can't be forged. Invocations are applied strictly one
after another and each one either halts, committing its effects, or faults
with the ledger failure message leaving the state intact. Invocation IDs are
single-use.

Events of halted invocations are handed to an optional Publisher (see
events/kafka), invocation outcomes can be counted with Metrics.
*/
package executor
