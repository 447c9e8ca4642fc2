package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jonboulle/clockwork"
	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/network"
	"github.com/ruteri/zaph/registry"
	"github.com/ruteri/zaph/transactor"
)

// TxOptions are the per-invocation transaction controls shared by every
// state-changing operation.
type TxOptions struct {
	// Yes skips the gas confirmation prompt.
	Yes bool
	// GasLimit is used verbatim when set.
	GasLimit *uint64
	// GasBuffer multiplies the gas estimate when set.
	GasBuffer *float64
	// Nonce overrides the pending nonce when set.
	Nonce *uint64
	// Mock skips the chain entirely and applies only the local mutation.
	Mock bool
	// ConfirmTimeout bounds the wait for a receipt. Zero uses the default.
	ConfirmTimeout time.Duration
}

func (o TxOptions) gasPolicy() transactor.GasPolicy {
	return transactor.GasPolicy{
		GasLimit:    o.GasLimit,
		GasBuffer:   o.GasBuffer,
		AutoConfirm: o.Yes,
	}
}

func (o TxOptions) executorOptions() transactor.Options {
	return transactor.Options{
		Gas:   o.gasPolicy(),
		Nonce: o.Nonce,
		Retry: transactor.RetryPolicy{Timeout: o.ConfirmTimeout},
	}
}

// TxOutcome reports the on-chain side of an operation. It is zero apart from
// Mock when the chain was skipped.
type TxOutcome struct {
	Hash  common.Hash
	State transactor.TxState
	Mock  bool
}

// Config holds the dependencies of a Service.
type Config struct {
	// Mirror is the local key store. Required.
	Mirror interfaces.KeyMirror
	// Resolver maps network labels to endpoints. Defaults to the built-in table.
	Resolver *network.Resolver
	// Dialer opens chain connections. Defaults to DialEthClient.
	Dialer interfaces.ChainDialer
	// Confirmer answers gas prompts. May be nil when every call runs with Yes.
	Confirmer interfaces.Confirmer
	// Clock stamps pings. Defaults to the real clock.
	Clock clockwork.Clock
	Log   *slog.Logger
}

// Service implements the contract operations and keeps the key mirror
// consistent with confirmed on-chain state.
type Service struct {
	mirror    interfaces.KeyMirror
	resolver  *network.Resolver
	dial      interfaces.ChainDialer
	confirmer interfaces.Confirmer
	clock     clockwork.Clock
	log       *slog.Logger
}

// NewService creates a Service from cfg, filling in defaults.
func NewService(cfg Config) *Service {
	s := &Service{
		mirror:    cfg.Mirror,
		resolver:  cfg.Resolver,
		dial:      cfg.Dialer,
		confirmer: cfg.Confirmer,
		clock:     cfg.Clock,
		log:       cfg.Log,
	}
	if s.resolver == nil {
		s.resolver = network.NewResolver()
	}
	if s.dial == nil {
		s.dial = DialEthClient
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// DialEthClient connects to a JSON-RPC endpoint over HTTP or WebSocket.
func DialEthClient(ctx context.Context, rpcURL string) (interfaces.ChainConn, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, interfaces.Networkf(err, "could not connect to %s", rpcURL)
	}
	return client, nil
}

// Mirror returns the key store the service operates on.
func (s *Service) Mirror() interfaces.KeyMirror {
	return s.mirror
}

// Resolver returns the network table.
func (s *Service) Resolver() *network.Resolver {
	return s.resolver
}

// lookup finds and validates the record before anything touches the network.
func (s *Service) lookup(keyID string) (*interfaces.KeyRecord, error) {
	record, err := s.mirror.Find(keyID)
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// contract dials the record's endpoint and returns a binding signing with the
// record's key. The returned close func releases the connection and must be
// called once the binding is no longer used.
func (s *Service) contract(ctx context.Context, rpcURL, contractAddress, privateKeyPath string) (*registry.ZaphenathClient, func(), error) {
	address, err := interfaces.ParseAddress(contractAddress)
	if err != nil {
		return nil, nil, err
	}
	conn, err := s.dial(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	client := registry.NewZaphenathClient(conn, address)
	client.SetExecutor(transactor.NewExecutor(conn, transactor.NewKeySource(privateKeyPath), s.confirmer, s.log))
	return client, conn.Close, nil
}

func (s *Service) contractFor(ctx context.Context, record *interfaces.KeyRecord) (*registry.ZaphenathClient, func(), error) {
	return s.contract(ctx, record.RPCURL, record.ContractAddress, record.PrivateKeyPath)
}

func outcome(result *transactor.Result) *TxOutcome {
	return &TxOutcome{Hash: result.Hash, State: result.State}
}

// applyConfirmed re-locates the record inside a locked update and applies fn.
// It must only be called after the on-chain call was confirmed or skipped in
// mock mode; a record that vanished meanwhile is reported as a conflict.
func (s *Service) applyConfirmed(ctx context.Context, op, keyID string, fn func(*interfaces.KeyRecord) error) error {
	err := s.mirror.UpdateInPlace(ctx, keyID, fn)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		s.log.Warn("Key vanished from config after on-chain call, local state not updated",
			"op", op, "keyID", keyID)
		return fmt.Errorf("%w: %s confirmed on-chain but key '%s' is no longer in config", interfaces.ErrConflict, op, keyID)
	}
	return err
}

func (s *Service) validateTx(opts TxOptions) error {
	return opts.gasPolicy().Validate()
}
