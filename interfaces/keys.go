package interfaces

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyRecord is one mirror entry describing an on-chain key.
type KeyRecord struct {
	ID                string            `json:"key_id"`
	ContractAddress   string            `json:"contract_address"`
	Owner             string            `json:"owner"`
	PrivateKeyPath    string            `json:"private_key_path"`
	Network           string            `json:"network,omitempty"`
	RPCURL            string            `json:"rpc_url"`
	Timeout           uint64            `json:"timeout"`
	Data              string            `json:"data,omitempty"`
	LastPingTimestamp *int64            `json:"last_ping_timestamp,omitempty"`
	Custodians        []CustodianRecord `json:"custodians"`
}

// CustodianRecord is a third party authorized on a key.
type CustodianRecord struct {
	Address string `json:"address"`
	Role    Role   `json:"role"`
	CanPing bool   `json:"can_ping"`
}

// Hash returns the on-chain identifier of the key.
func (r *KeyRecord) Hash() common.Hash {
	return KeyHash(r.ID)
}

// Validate checks that the fields needed to talk to the contract are present.
func (r *KeyRecord) Validate() error {
	switch {
	case r.ID == "":
		return Configf("missing 'key_id'")
	case r.ContractAddress == "":
		return Configf("missing 'contract_address' for key '%s'", r.ID)
	case r.PrivateKeyPath == "":
		return Configf("missing 'private_key_path' for key '%s'", r.ID)
	case r.RPCURL == "":
		return Configf("missing 'rpc_url' for key '%s'", r.ID)
	case r.Owner == "":
		return Configf("missing 'owner' address for key '%s'", r.ID)
	}
	if !common.IsHexAddress(r.ContractAddress) {
		return Configf("invalid 'contract_address' for key '%s': %s", r.ID, r.ContractAddress)
	}
	if !common.IsHexAddress(r.Owner) {
		return Configf("invalid 'owner' for key '%s': %s", r.ID, r.Owner)
	}
	return nil
}

// FindCustodian returns the index of the custodian with the given address or -1.
func (r *KeyRecord) FindCustodian(address string) int {
	canonical := strings.ToLower(address)
	for i := range r.Custodians {
		if strings.ToLower(r.Custodians[i].Address) == canonical {
			return i
		}
	}
	return -1
}

// UpsertCustodian replaces the custodian with the same address in place or
// appends it. It reports whether an existing entry was overwritten.
func (r *KeyRecord) UpsertCustodian(c CustodianRecord) bool {
	c.Address = strings.ToLower(c.Address)
	if idx := r.FindCustodian(c.Address); idx >= 0 {
		r.Custodians[idx] = c
		return true
	}
	r.Custodians = append(r.Custodians, c)
	return false
}

// RemoveCustodian drops the custodian with the given address and reports
// whether one was present.
func (r *KeyRecord) RemoveCustodian(address string) bool {
	idx := r.FindCustodian(address)
	if idx < 0 {
		return false
	}
	r.Custodians = append(r.Custodians[:idx], r.Custodians[idx+1:]...)
	return true
}

// KeyHash is keccak256 of the key identifier.
func KeyHash(keyID string) common.Hash {
	return crypto.Keccak256Hash([]byte(keyID))
}

// CanonicalAddress validates a hex address and returns its lower-case 0x form.
func CanonicalAddress(addr string) (string, error) {
	trimmed := strings.TrimSpace(addr)
	if !common.IsHexAddress(trimmed) {
		return "", Validationf("invalid address: %s", addr)
	}
	return AddressString(common.HexToAddress(trimmed)), nil
}

// ParseAddress validates a hex address and returns it as a common.Address.
func ParseAddress(addr string) (common.Address, error) {
	canonical, err := CanonicalAddress(addr)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(canonical), nil
}

// AddressString formats an address in canonical lower-case hex.
func AddressString(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// DecodeHexData decodes a hex payload with an optional 0x prefix.
func DecodeHexData(data string) ([]byte, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(data), "0x"), "0X")
	decoded, err := hex.DecodeString(clean)
	if err != nil {
		return nil, Validationf("invalid hex data: %s", data)
	}
	return decoded, nil
}
