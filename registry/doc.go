// Package registry provides a binding for the Zaphenath key registry contract.
//
// The contract stores an owner's encrypted payload under a key identifier
// together with a liveness timeout. As long as the owner pings the key within
// the timeout the payload stays private; afterwards custodians can read it
// according to their role.
//
// Keys are addressed on-chain by keccak256 of the human-readable key ID (see
// interfaces.KeyHash). The binding exposes:
//
//   - CreateKey(keyHash, data, timeout)
//   - DeleteKey(keyHash, owner)
//   - Ping(keyHash, owner)
//   - UpdateKey(keyHash, owner, data, timeout)
//   - SetCustodian(keyHash, owner, user, role, canPing)
//   - RemoveCustodian(keyHash, owner, user)
//   - ReadKey(keyHash, owner), a view call
//
// # Transaction Operations
//
// State-changing methods are routed through a transactor.Executor, which owns
// gas policy, signing and confirmation. Call SetExecutor before using them;
// otherwise ErrNoExecutor is returned. ReadKey only needs the chain backend.
//
// # Usage Example
//
//	client := registry.NewZaphenathClient(backend, contractAddress)
//	client.SetExecutor(transactor.NewExecutor(backend, keys, confirmer, log))
//
//	result, err := client.Ping(ctx, transactor.Options{}, interfaces.KeyHash("k1"), owner)
//	if err != nil {
//	    return err
//	}
//	log.Info("pinged", "tx", result.Hash)
package registry
