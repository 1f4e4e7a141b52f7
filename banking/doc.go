/*
Banking contract is a minimal custodial ledger.

Contract keeps numbered accounts, each one owned by the identity that created
it. Only the account owner can deposit to, withdraw from or transfer funds out
of the account. Balances are plain integers in base units, the contract knows
nothing about decimals. The deployer of the contract becomes the contract
owner, the role may be passed to another identity by the current owner and
grants contract updates.

All failures abort the invocation with one of the messages from bankingconst
package, so no partial changes are ever stored.

# Contract notifications

AccountCreated notification. This notification is produced when a new account
is created. Balance is always zero.

	AccountCreated:
	  - name: id
	    type: Integer
	  - name: owner
	    type: Hash160
	  - name: balance
	    type: Integer
*/
package banking

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'owner' -> interop.Hash160
    contract owner
  - 'counter' -> int
    number of created accounts
  - 'a' + decimal account id -> std.Serialize(Account)
    account owner and balance
*/
