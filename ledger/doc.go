/*
Package ledger implements the Banking ledger state machine in plain Go.

The ledger keeps a set of accounts, each owned by the identity which created
it, and a contract owner identity which is only able to pass its role to
someone else. Identities are Neo script hashes. The caller of every operation
is an explicit argument: authenticating it is the job of the environment
hosting the ledger (see the executor package for an in-process one and the
banking package for the Neo N3 contract).

Operations either fully apply or fail with *Error before changing anything,
and failure messages are the same as the contract ones.
*/
package ledger
