package operations

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/transactor"
)

// AddKeyRequest describes a key that already exists on-chain and only needs
// a local entry.
type AddKeyRequest struct {
	KeyID           string
	ContractAddress string
	PrivateKeyPath  string
	// Owner is derived from the private key when empty.
	Owner   string
	RPCURL  string
	Network string
	Timeout uint64
}

// AddKey inserts a mirror entry without touching the chain.
func (s *Service) AddKey(ctx context.Context, req AddKeyRequest) (*interfaces.KeyRecord, error) {
	if req.KeyID == "" {
		return nil, interfaces.Validationf("key id must not be empty")
	}
	if req.PrivateKeyPath == "" {
		return nil, interfaces.Validationf("private key path must not be empty")
	}
	contractAddress, err := interfaces.CanonicalAddress(req.ContractAddress)
	if err != nil {
		return nil, err
	}
	netCtx, err := s.resolver.Resolve(req.RPCURL, req.Network)
	if err != nil {
		return nil, err
	}

	owner := req.Owner
	if owner == "" {
		addr, err := transactor.NewKeySource(req.PrivateKeyPath).Address()
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
		Custodians:      []interfaces.CustodianRecord{},
	}
	if err := s.mirror.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info("Key added to config", "keyID", req.KeyID, "path", s.mirror.Path())
	return &record, nil
}

// InitMirror creates an empty mirror. An existing file is only replaced when
// force is set.
func (s *Service) InitMirror(ctx context.Context, force bool) error {
	_, err := os.Stat(s.mirror.Path())
	switch {
	case err == nil && !force:
		return fmt.Errorf("%w: config already exists at %s, use --force to overwrite", interfaces.ErrConfig, s.mirror.Path())
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return interfaces.Configf("could not stat %s: %v", s.mirror.Path(), err)
	}

	if err := s.mirror.WriteAll(ctx, []interfaces.KeyRecord{}); err != nil {
		return err
	}
	s.log.Info("Initialized config", "path", s.mirror.Path(), "force", force)
	return nil
}

// ViewMirror returns every mirror entry.
func (s *Service) ViewMirror() ([]interfaces.KeyRecord, error) {
	return s.mirror.ReadAll()
}

// MirrorPath returns the location of the mirror file.
func (s *Service) MirrorPath() string {
	return s.mirror.Path()
}
