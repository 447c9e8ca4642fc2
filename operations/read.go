package operations

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/zaph/transactor"
)

// ReadKey queries the key's data as the signer configured for it. Whether the
// call is allowed is decided by the contract.
func (s *Service) ReadKey(ctx context.Context, keyID string) ([]byte, error) {
	record, err := s.lookup(keyID)
	if err != nil {
		return nil, err
	}

	caller, err := transactor.NewKeySource(record.PrivateKeyPath).Address()
	if err != nil {
		return nil, err
	}

	client, closeConn, err := s.contractFor(ctx, record)
	if err != nil {
		return nil, err
	}
	defer closeConn()

	return client.ReadKey(ctx, caller, record.Hash(), common.HexToAddress(record.Owner))
}
