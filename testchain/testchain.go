// Package testchain provides a simulated Ethereum chain for tests.
package testchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"
)

// revertingInitCode deploys a contract whose runtime code is
// PUSH1 0 PUSH1 0 REVERT, so every call to it fails.
const revertingInitCode = "6460006000fd6000526005601bf3"

// AutoMiner wraps the simulated client and mines a block after every
// submitted transaction.
type AutoMiner struct {
	simulated.Client
	backend *simulated.Backend
}

// SendTransaction submits tx and commits a block.
func (a *AutoMiner) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := a.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	a.backend.Commit()
	return nil
}

// Chain is a simulated chain with one funded account.
type Chain struct {
	Backend *simulated.Backend
	Client  *AutoMiner
	Key     *ecdsa.PrivateKey
	Auth    *bind.TransactOpts
}

// New creates a simulated chain with a funded account and closes it when the test ends.
func New(t *testing.T) *Chain {
	t.Helper()

	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(1337))
	require.NoError(t, err)

	balance := new(big.Int)
	balance.SetString("10000000000000000000", 10) // 10 ETH

	genesisAlloc := map[common.Address]types.Account{
		auth.From: {Balance: balance},
	}

	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(8000000))
	t.Cleanup(func() { backend.Close() })

	return &Chain{
		Backend: backend,
		Client:  &AutoMiner{Client: backend.Client(), backend: backend},
		Key:     privateKey,
		Auth:    auth,
	}
}

// Address returns the funded account.
func (c *Chain) Address() common.Address {
	return c.Auth.From
}

// KeyFile writes the funded account's key as hex into a temporary file.
func (c *Chain) KeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "owner.key")
	encoded := "0x" + hex.EncodeToString(crypto.FromECDSA(c.Key)) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0600))
	return path
}

// DeployReverter deploys a contract that reverts on every call.
func (c *Chain) DeployReverter(t *testing.T) common.Address {
	t.Helper()

	addr, tx, _, err := bind.DeployContract(c.Auth, abi.ABI{}, common.FromHex(revertingInitCode), c.Client)
	require.NoError(t, err)

	receipt, err := c.Client.TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status, "reverter deployment failed")

	return addr
}
