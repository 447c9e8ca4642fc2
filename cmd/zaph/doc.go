// Package main (cmd/zaph) is the command-line client for the Zaphenath
// time-locked data-release contract.
//
// An owner registers encrypted data under a key ID with a timeout. As long as
// the key is pinged within the timeout the data stays private; afterwards the
// custodians set on the key can read it according to their role.
//
// Commands are grouped in three families:
//
//   - config: view, path, init and add entries of the local key config.
//   - contract: create-key, delete-key, ping-key, update-key, set-custodian,
//     remove-custodian and read-key.
//   - daemon: run (foreground or --detached), stop and logs.
//
// The key config is a JSON array kept at --config, $ZAPHENATH_CONFIG_PATH or
// <user config dir>/zaphenath/config.json. Variables from a .env file in the
// working directory are loaded at startup. Local entries only change after the
// matching transaction is confirmed.
//
// Every transaction estimates gas and asks for confirmation unless --yes is
// given. --gas-limit skips estimation, --gas-buffer scales the estimate and
// --nonce overrides the account nonce.
//
// Example usage:
//
//	zaph contract create-key --key-id k1 --data 0xdeadbeef --timeout 600 \
//	    --contract-address 0x5FbDB2315678afecb367f032d93F642f64180aa3 \
//	    --private-key-path ./owner.key --network sepolia --rpc-url http://127.0.0.1:8545
//
//	zaph daemon run --interval 300 --detached
//	zaph daemon logs --tail 50
//	zaph daemon stop
package main
