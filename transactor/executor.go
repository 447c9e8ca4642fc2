// Package transactor builds, signs, submits and confirms contract calls.
package transactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/zaph/interfaces"
)

// ErrConfirmationTimeout is returned when a receipt does not show up within
// the retry policy's timeout.
var ErrConfirmationTimeout = fmt.Errorf("%w: timed out waiting for transaction receipt", interfaces.ErrNetwork)

var errReceiptPending = errors.New("receipt not yet available")

// TxState tracks a transaction through its lifecycle.
type TxState int

const (
	TxBuilt TxState = iota
	TxSigned
	TxSubmitted
	TxPending
	TxConfirmed
	TxFailed
	TxUnknown
)

func (s TxState) String() string {
	switch s {
	case TxBuilt:
		return "built"
	case TxSigned:
		return "signed"
	case TxSubmitted:
		return "submitted"
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	case TxUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Call is a packed contract call.
type Call struct {
	Method string
	To     common.Address
	Data   []byte
}

// RetryPolicy bounds the receipt polling.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Timeout         time.Duration
}

// DefaultRetryPolicy polls after one second, backs off up to 30 seconds, and
// gives up after 10 minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Timeout:         10 * time.Minute,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.InitialInterval <= 0 {
		p.InitialInterval = def.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = def.MaxInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	return p
}

// Options configures a single Execute call.
type Options struct {
	Gas   GasPolicy
	Nonce *uint64
	Retry RetryPolicy
}

// Result describes what happened to a transaction.
type Result struct {
	Hash     common.Hash
	State    TxState
	GasLimit uint64
	Receipt  *types.Receipt
}

// Executor drives one contract call at a time through
// Built, Signed, Submitted, Pending, then one of Confirmed, Failed or Unknown.
// It never touches local state.
type Executor struct {
	backend   interfaces.ChainBackend
	keys      *KeySource
	confirmer interfaces.Confirmer
	log       *slog.Logger
}

// NewExecutor creates an executor signing with keys and talking to backend.
// confirmer may be nil when every call runs with auto-confirm.
func NewExecutor(backend interfaces.ChainBackend, keys *KeySource, confirmer interfaces.Confirmer, log *slog.Logger) *Executor {
	return &Executor{
		backend:   backend,
		keys:      keys,
		confirmer: confirmer,
		log:       log,
	}
}

// Keys returns the executor's key source.
func (e *Executor) Keys() *KeySource {
	return e.keys
}

// Execute runs the call to completion. The returned Result is non-nil once
// the transaction has been submitted, even when an error is returned.
func (e *Executor) Execute(ctx context.Context, call Call, opts Options) (*Result, error) {
	key, err := e.keys.Key()
	if err != nil {
		return nil, err
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	log := e.log.With("method", call.Method, "from", from.Hex(), "to", call.To.Hex())

	msg := ethereum.CallMsg{
		From: from,
		To:   &call.To,
		Data: call.Data,
	}

	decision, err := opts.Gas.Decide(ctx, e.backend, msg, e.confirmer)
	if err != nil {
		return nil, err
	}

	gasLimit := decision.Limit
	if decision.Omit {
		gasLimit, err = e.backend.EstimateGas(ctx, msg)
		if err != nil {
			return nil, interfaces.Networkf(err, "gas estimation failed")
		}
	}

	var nonce uint64
	if opts.Nonce != nil {
		nonce = *opts.Nonce
	} else {
		nonce, err = e.backend.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, interfaces.Networkf(err, "could not fetch nonce")
		}
	}

	tx, chainID, err := e.buildTx(ctx, call, nonce, gasLimit)
	if err != nil {
		return nil, err
	}
	log.Debug("Transaction built", "state", TxBuilt, "nonce", nonce, "gas", gasLimit)

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("could not sign transaction: %w", err)
	}
	result := &Result{Hash: signed.Hash(), State: TxSigned, GasLimit: gasLimit}
	log.Debug("Transaction signed", "state", TxSigned, "tx", result.Hash.Hex())

	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, interfaces.Networkf(err, "could not submit transaction")
	}
	result.State = TxSubmitted
	log.Debug("Transaction submitted", "state", TxSubmitted, "tx", result.Hash.Hex())

	result.State = TxPending
	log.Info("Waiting for transaction to be mined", "tx", result.Hash.Hex())

	receipt, err := e.WaitForConfirmation(ctx, result.Hash, opts.Retry)
	if err != nil {
		return result, err
	}
	result.Receipt = receipt
	result.State = ReceiptState(receipt)

	switch result.State {
	case TxConfirmed:
		log.Info("Transaction confirmed", "tx", result.Hash.Hex(), "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
		return result, nil
	case TxFailed:
		return result, fmt.Errorf("%w: transaction %s failed on-chain, status %d", interfaces.ErrChain, result.Hash.Hex(), receipt.Status)
	default:
		return result, fmt.Errorf("%w: transaction status unknown for %s, it might have been dropped or replaced", interfaces.ErrChain, result.Hash.Hex())
	}
}

func (e *Executor) buildTx(ctx context.Context, call Call, nonce, gasLimit uint64) (*types.Transaction, *big.Int, error) {
	chainID, err := e.backend.ChainID(ctx)
	if err != nil {
		return nil, nil, interfaces.Networkf(err, "could not fetch chain id")
	}

	head, err := e.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, interfaces.Networkf(err, "could not fetch latest header")
	}

	to := call.To
	if head.BaseFee != nil {
		tip, err := e.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, nil, interfaces.Networkf(err, "could not suggest gas tip")
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &to,
			Data:      call.Data,
		}), chainID, nil
	}

	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, interfaces.Networkf(err, "could not suggest gas price")
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Data:     call.Data,
	}), chainID, nil
}

// WaitForConfirmation polls for the receipt of hash with exponential backoff
// until it appears, the policy's timeout elapses, or ctx is cancelled. Only
// "receipt not found" is retried.
func (e *Executor) WaitForConfirmation(ctx context.Context, hash common.Hash, policy RetryPolicy) (*types.Receipt, error) {
	policy = policy.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = policy.Timeout
	b.Reset()

	receipt, err := backoff.RetryNotifyWithData(func() (*types.Receipt, error) {
		receipt, err := e.backend.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) || (err == nil && receipt == nil) {
			return nil, errReceiptPending
		}
		if err != nil {
			return nil, backoff.Permanent(interfaces.Networkf(err, "error getting transaction receipt"))
		}
		return receipt, nil
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		e.log.Debug("Receipt not available yet", "tx", hash.Hex(), "retryIn", next)
	})

	switch {
	case err == nil:
		return receipt, nil
	case ctx.Err() != nil:
		return nil, interfaces.Networkf(ctx.Err(), "stopped waiting for %s", hash.Hex())
	case errors.Is(err, errReceiptPending):
		return nil, fmt.Errorf("%w after %s: %s", ErrConfirmationTimeout, policy.Timeout, hash.Hex())
	default:
		return nil, err
	}
}

// ReceiptState maps a receipt onto a terminal TxState. Receipts that carry a
// state root instead of a status code cannot be interpreted.
func ReceiptState(receipt *types.Receipt) TxState {
	if len(receipt.PostState) > 0 {
		return TxUnknown
	}
	switch receipt.Status {
	case types.ReceiptStatusSuccessful:
		return TxConfirmed
	case types.ReceiptStatusFailed:
		return TxFailed
	default:
		return TxUnknown
	}
}
