package operations

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/zaph/interfaces"
)

// SetCustodian grants user a role on the key. An existing custodian with the
// same address is overwritten in place.
func (s *Service) SetCustodian(ctx context.Context, keyID, user, roleLabel string, canPing bool, opts TxOptions) (*TxOutcome, error) {
	if err := s.validateTx(opts); err != nil {
		return nil, err
	}
	role, err := interfaces.ParseRole(roleLabel)
	if err != nil {
		return nil, err
	}
	userAddr, err := interfaces.ParseAddress(user)
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
		txResult, err := client.SetCustodian(ctx, opts.executorOptions(), record.Hash(), common.HexToAddress(record.Owner), userAddr, role, canPing)
		if err != nil {
			return nil, err
		}
		result = outcome(txResult)
	}

	var overwritten bool
	err = s.applyConfirmed(ctx, "setCustodian", keyID, func(record *interfaces.KeyRecord) error {
		overwritten = record.UpsertCustodian(interfaces.CustodianRecord{
			Address: interfaces.AddressString(userAddr),
			Role:    role,
			CanPing: canPing,
		})
		return nil
	})
	if err != nil {
		return result, err
	}

	s.log.Info("Custodian set", "keyID", keyID, "user", interfaces.AddressString(userAddr),
		"role", role, "canPing", canPing, "overwritten", overwritten, "tx", result.Hash.Hex())
	return result, nil
}

// RemoveCustodianResult is returned by RemoveCustodian.
type RemoveCustodianResult struct {
	TxOutcome
	// RemovedLocally is false when the mirror had no custodian with that address.
	RemovedLocally bool
}

// RemoveCustodian revokes user's access on-chain and drops the custodian
// from the mirror. A custodian missing locally is not an error.
func (s *Service) RemoveCustodian(ctx context.Context, keyID, user string, opts TxOptions) (*RemoveCustodianResult, error) {
	if err := s.validateTx(opts); err != nil {
		return nil, err
	}
	userAddr, err := interfaces.ParseAddress(user)
	if err != nil {
		return nil, err
	}
	record, err := s.lookup(keyID)
	if err != nil {
		return nil, err
	}

	result := &RemoveCustodianResult{TxOutcome: TxOutcome{Mock: opts.Mock}}
	if !opts.Mock {
		client, closeConn, err := s.contractFor(ctx, record)
		if err != nil {
			return nil, err
		}
		defer closeConn()
		txResult, err := client.RemoveCustodian(ctx, opts.executorOptions(), record.Hash(), common.HexToAddress(record.Owner), userAddr)
		if err != nil {
			return nil, err
		}
		result.TxOutcome = *outcome(txResult)
	}

	err = s.applyConfirmed(ctx, "removeCustodian", keyID, func(record *interfaces.KeyRecord) error {
		result.RemovedLocally = record.RemoveCustodian(interfaces.AddressString(userAddr))
		return nil
	})
	if err != nil {
		return result, err
	}

	if !result.RemovedLocally {
		s.log.Warn("Custodian removed on-chain but was not present in local config",
			"keyID", keyID, "user", interfaces.AddressString(userAddr))
	} else {
		s.log.Info("Custodian removed", "keyID", keyID, "user", interfaces.AddressString(userAddr), "tx", result.Hash.Hex())
	}
	return result, nil
}
