package interfaces

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainBackend is the subset of an Ethereum JSON-RPC client used to build,
// submit and confirm transactions. Both *ethclient.Client and
// simulated.Client satisfy it.
type ChainBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainConn is a dialed ChainBackend that owns a connection. *ethclient.Client
// satisfies it.
type ChainConn interface {
	ChainBackend
	Close()
}

// ChainDialer opens a connection to an RPC endpoint. The caller closes it.
type ChainDialer func(ctx context.Context, rpcURL string) (ChainConn, error)

// Confirmer asks the operator to approve an action.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// KeyMirror is the local store of key records.
type KeyMirror interface {
	Path() string
	ReadAll() ([]KeyRecord, error)
	WriteAll(ctx context.Context, records []KeyRecord) error
	Find(keyID string) (*KeyRecord, error)
	Insert(ctx context.Context, record KeyRecord) error
	UpdateInPlace(ctx context.Context, keyID string, fn func(*KeyRecord) error) error
	Remove(ctx context.Context, keyID string) error
	Update(ctx context.Context, fn func([]KeyRecord) ([]KeyRecord, error)) error
}
