package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/transactor"
)

// CreateKeyRequest describes a new key.
type CreateKeyRequest struct {
	KeyID           string
	DataHex         string
	Timeout         uint64
	ContractAddress string
	PrivateKeyPath  string
	// Owner is derived from the private key when empty.
	Owner   string
	RPCURL  string
	Network string
}

// CreateKeyResult is returned by CreateKey.
type CreateKeyResult struct {
	TxOutcome
	Record interfaces.KeyRecord
}

// CreateKey registers the key on-chain and records it in the mirror.
func (s *Service) CreateKey(ctx context.Context, req CreateKeyRequest, opts TxOptions) (*CreateKeyResult, error) {
	if req.KeyID == "" {
		return nil, interfaces.Validationf("key id must not be empty")
	}
	if req.PrivateKeyPath == "" {
		return nil, interfaces.Validationf("private key path must not be empty")
	}
	if err := s.validateTx(opts); err != nil {
		return nil, err
	}
	data, err := interfaces.DecodeHexData(req.DataHex)
	if err != nil {
		return nil, err
	}
	contractAddress, err := interfaces.CanonicalAddress(req.ContractAddress)
	if err != nil {
		return nil, err
	}
	netCtx, err := s.resolver.Resolve(req.RPCURL, req.Network)
	if err != nil {
		return nil, err
	}

	_, err = s.mirror.Find(req.KeyID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: '%s'", interfaces.ErrKeyExists, req.KeyID)
	case !errors.Is(err, interfaces.ErrKeyNotFound):
		return nil, err
	}

	keys := transactor.NewKeySource(req.PrivateKeyPath)
	owner := req.Owner
	if owner == "" {
		addr, err := keys.Address()
		if err != nil {
			return nil, err
		}
		owner = interfaces.AddressString(addr)
	} else if owner, err = interfaces.CanonicalAddress(owner); err != nil {
		return nil, err
	}

	record := interfaces.KeyRecord{
		ID:              req.KeyID,
		ContractAddress: contractAddress,
		Owner:           owner,
		PrivateKeyPath:  req.PrivateKeyPath,
		Network:         netCtx.Network,
		RPCURL:          netCtx.RPCURL,
		Timeout:         req.Timeout,
		Data:            encodeData(data),
		Custodians:      []interfaces.CustodianRecord{},
	}

	result := &CreateKeyResult{TxOutcome: TxOutcome{Mock: opts.Mock}}
	if !opts.Mock {
		client, closeConn, err := s.contract(ctx, record.RPCURL, record.ContractAddress, record.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		defer closeConn()
		txResult, err := client.CreateKey(ctx, opts.executorOptions(), record.Hash(), data, record.Timeout)
		if err != nil {
			return nil, err
		}
		result.TxOutcome = *outcome(txResult)
	} else {
		s.log.Info("Mock mode, skipping on-chain createKey", "keyID", req.KeyID)
	}

	if err := s.mirror.Insert(ctx, record); err != nil {
		if errors.Is(err, interfaces.ErrKeyExists) {
			s.log.Warn("Key created on-chain but local save rejected, another entry with the same id appeared",
				"keyID", req.KeyID, "tx", result.Hash.Hex())
			return result, fmt.Errorf("%w: key '%s' created on-chain but local save rejected: %v", interfaces.ErrConflict, req.KeyID, err)
		}
		return result, err
	}

	s.log.Info("Key created", "keyID", req.KeyID, "owner", owner, "tx", result.Hash.Hex())
	result.Record = record
	return result, nil
}

// DeleteKey removes the key on-chain and then from the mirror.
func (s *Service) DeleteKey(ctx context.Context, keyID string, opts TxOptions) (*TxOutcome, error) {
	if err := s.validateTx(opts); err != nil {
		return nil, err
	}
	record, err := s.lookup(keyID)
	if err != nil {
		return nil, err
	}

	result := &TxOutcome{Mock: opts.Mock}
	if !opts.Mock {
		client, closeConn, err := s.contractFor(ctx, record)
		if err != nil {
			return nil, err
		}
		defer closeConn()
		txResult, err := client.DeleteKey(ctx, opts.executorOptions(), record.Hash(), common.HexToAddress(record.Owner))
		if err != nil {
			return nil, err
		}
		result = outcome(txResult)
	}

	err = s.mirror.Remove(ctx, keyID)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		s.log.Warn("Key vanished from config after on-chain delete", "keyID", keyID)
		return result, fmt.Errorf("%w: deleteKey confirmed on-chain but key '%s' is no longer in config", interfaces.ErrConflict, keyID)
	}
	if err != nil {
		return result, err
	}

	s.log.Info("Key deleted", "keyID", keyID, "tx", result.Hash.Hex())
	return result, nil
}

// PingKey refreshes the key's liveness on-chain and records the ping time.
func (s *Service) PingKey(ctx context.Context, keyID string, opts TxOptions) (*TxOutcome, error) {
	if err := s.validateTx(opts); err != nil {
		return nil, err
	}
	record, err := s.lookup(keyID)
	if err != nil {
		return nil, err
	}

	result, err := s.PingOnChain(ctx, record, opts)
	if err != nil {
		return nil, err
	}

	if err := s.RecordPing(ctx, keyID); err != nil {
		return result, err
	}
	return result, nil
}

// PingOnChain performs only the on-chain ping for record. The mirror is not
// touched; callers record the ping with RecordPing once it succeeded.
func (s *Service) PingOnChain(ctx context.Context, record *interfaces.KeyRecord, opts TxOptions) (*TxOutcome, error) {
	if opts.Mock {
		s.log.Info("Mock mode, skipping on-chain ping", "keyID", record.ID)
		return &TxOutcome{Mock: true}, nil
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	client, closeConn, err := s.contractFor(ctx, record)
	if err != nil {
		return nil, err
	}
	defer closeConn()
	txResult, err := client.Ping(ctx, opts.executorOptions(), record.Hash(), common.HexToAddress(record.Owner))
	if err != nil {
		return nil, err
	}
	return outcome(txResult), nil
}

// RecordPing sets last_ping_timestamp of keyID to the current time.
func (s *Service) RecordPing(ctx context.Context, keyID string) error {
	now := s.clock.Now().Unix()
	return s.applyConfirmed(ctx, "ping", keyID, func(record *interfaces.KeyRecord) error {
		record.LastPingTimestamp = &now
		return nil
	})
}

// UpdateKey replaces the key's data and timeout on-chain and in the mirror.
func (s *Service) UpdateKey(ctx context.Context, keyID, dataHex string, timeout uint64, opts TxOptions) (*TxOutcome, error) {
	if err := s.validateTx(opts); err != nil {
		return nil, err
	}
	data, err := interfaces.DecodeHexData(dataHex)
	if err != nil {
		return nil, err
	}
	record, err := s.lookup(keyID)
	if err != nil {
		return nil, err
	}

	result := &TxOutcome{Mock: opts.Mock}
	if !opts.Mock {
		client, closeConn, err := s.contractFor(ctx, record)
		if err != nil {
			return nil, err
		}
		defer closeConn()
		txResult, err := client.UpdateKey(ctx, opts.executorOptions(), record.Hash(), common.HexToAddress(record.Owner), data, timeout)
		if err != nil {
			return nil, err
		}
		result = outcome(txResult)
	}

	err = s.applyConfirmed(ctx, "updateKey", keyID, func(record *interfaces.KeyRecord) error {
		record.Data = encodeData(data)
		record.Timeout = timeout
		return nil
	})
	if err != nil {
		return result, err
	}

	s.log.Info("Key updated", "keyID", keyID, "timeout", timeout, "tx", result.Hash.Hex())
	return result, nil
}

func encodeData(data []byte) string {
	return "0x" + common.Bytes2Hex(data)
}
