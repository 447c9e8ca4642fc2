package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/transactor"
)

// ErrNoExecutor is returned when a transaction is attempted without first setting an executor.
var ErrNoExecutor = errors.New("no transaction executor available")

// ZaphenathClient talks to one deployed Zaphenath contract.
type ZaphenathClient struct {
	backend interfaces.ChainBackend
	address common.Address
	exec    *transactor.Executor
}

// NewZaphenathClient creates a client for the contract at address.
func NewZaphenathClient(backend interfaces.ChainBackend, address common.Address) *ZaphenathClient {
	return &ZaphenathClient{
		backend: backend,
		address: address,
	}
}

// SetExecutor sets the executor used by the state-changing methods.
func (c *ZaphenathClient) SetExecutor(exec *transactor.Executor) {
	c.exec = exec
}

// Address returns the contract address.
func (c *ZaphenathClient) Address() common.Address {
	return c.address
}

// Pack builds a call of method with args against the contract.
func (c *ZaphenathClient) Pack(method string, args ...interface{}) (transactor.Call, error) {
	data, err := zaphenathABI.Pack(method, args...)
	if err != nil {
		return transactor.Call{}, fmt.Errorf("%w: could not pack %s: %v", interfaces.ErrValidation, method, err)
	}
	return transactor.Call{Method: method, To: c.address, Data: data}, nil
}

func (c *ZaphenathClient) transact(ctx context.Context, opts transactor.Options, method string, args ...interface{}) (*transactor.Result, error) {
	if c.exec == nil {
		return nil, ErrNoExecutor
	}
	call, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	return c.exec.Execute(ctx, call, opts)
}

// CreateKey registers data under keyHash with a liveness timeout in seconds.
func (c *ZaphenathClient) CreateKey(ctx context.Context, opts transactor.Options, keyHash [32]byte, data []byte, timeout uint64) (*transactor.Result, error) {
	return c.transact(ctx, opts, MethodCreateKey, keyHash, data, new(big.Int).SetUint64(timeout))
}

// DeleteKey removes keyHash owned by owner.
func (c *ZaphenathClient) DeleteKey(ctx context.Context, opts transactor.Options, keyHash [32]byte, owner common.Address) (*transactor.Result, error) {
	return c.transact(ctx, opts, MethodDeleteKey, keyHash, owner)
}

// Ping refreshes the liveness of keyHash.
func (c *ZaphenathClient) Ping(ctx context.Context, opts transactor.Options, keyHash [32]byte, owner common.Address) (*transactor.Result, error) {
	return c.transact(ctx, opts, MethodPing, keyHash, owner)
}

// UpdateKey replaces the data and timeout of keyHash.
func (c *ZaphenathClient) UpdateKey(ctx context.Context, opts transactor.Options, keyHash [32]byte, owner common.Address, data []byte, timeout uint64) (*transactor.Result, error) {
	return c.transact(ctx, opts, MethodUpdateKey, keyHash, owner, data, new(big.Int).SetUint64(timeout))
}

// SetCustodian grants user the given role on keyHash.
func (c *ZaphenathClient) SetCustodian(ctx context.Context, opts transactor.Options, keyHash [32]byte, owner, user common.Address, role interfaces.Role, canPing bool) (*transactor.Result, error) {
	return c.transact(ctx, opts, MethodSetCustodian, keyHash, owner, user, role.Wire(), canPing)
}

// RemoveCustodian revokes user's access to keyHash.
func (c *ZaphenathClient) RemoveCustodian(ctx context.Context, opts transactor.Options, keyHash [32]byte, owner, user common.Address) (*transactor.Result, error) {
	return c.transact(ctx, opts, MethodRemoveCustodian, keyHash, owner, user)
}

// ReadKey returns the data stored under keyHash as seen by caller.
func (c *ZaphenathClient) ReadKey(ctx context.Context, caller common.Address, keyHash [32]byte, owner common.Address) ([]byte, error) {
	call, err := c.Pack(MethodReadKey, keyHash, owner)
	if err != nil {
		return nil, err
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: caller,
		To:   &call.To,
		Data: call.Data,
	}, nil)
	if err != nil {
		return nil, interfaces.Networkf(err, "readKey call failed")
	}

	values, err := zaphenathABI.Unpack(MethodReadKey, out)
	if err != nil {
		return nil, fmt.Errorf("%w: could not decode readKey response from %s: %v", interfaces.ErrChain, c.address.Hex(), err)
	}
	data, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected readKey response type %T", interfaces.ErrChain, values[0])
	}
	return data, nil
}
