// Package operations implements the key lifecycle against the Zaphenath
// contract and keeps the local key mirror in step with it.
//
// Every state-changing operation follows the same order:
//
//  1. validate arguments and locate the key in the mirror, failing before any
//     network access;
//  2. run the contract call through a transactor.Executor (skipped in mock mode);
//  3. only once the transaction is confirmed, apply the matching mirror
//     mutation inside a locked read-modify-write.
//
// A failed, unknown or aborted transaction leaves the mirror untouched. The
// mirror never overrides the chain; divergence is reported, not repaired.
package operations
