package transactor

import (
	"crypto/ecdsa"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/zaph/interfaces"
)

// KeySource loads a hex-encoded secp256k1 private key from a file on first
// use and caches it for its own lifetime. The file is never re-read.
type KeySource struct {
	path string

	mu  sync.Mutex
	key *ecdsa.PrivateKey
}

// NewKeySource creates a lazy key source for the given path.
func NewKeySource(path string) *KeySource {
	return &KeySource{path: path}
}

// NewStaticKeySource wraps an already loaded key.
func NewStaticKeySource(key *ecdsa.PrivateKey) *KeySource {
	return &KeySource{key: key}
}

// Path returns the file the key is loaded from.
func (s *KeySource) Path() string {
	return s.path
}

// Key returns the private key, loading it if needed.
func (s *KeySource) Key() (*ecdsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.Configf("private key file not found: %s", s.path)
	}
	if err != nil {
		return nil, interfaces.Configf("failed to load private key from %s: %v", s.path, err)
	}

	hexKey := strings.TrimSpace(string(raw))
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, interfaces.Validationf("invalid private key format from path: %s", s.path)
	}

	s.key = key
	return key, nil
}

// Address returns the account address of the key.
func (s *KeySource) Address() (common.Address, error) {
	key, err := s.Key()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
