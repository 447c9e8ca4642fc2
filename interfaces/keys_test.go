package interfaces

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testOwner    = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func validRecord() KeyRecord {
	return KeyRecord{
		ID:              "k1",
		ContractAddress: testContract,
		Owner:           testOwner,
		PrivateKeyPath:  "/tmp/key",
		RPCURL:          "http://localhost:8545",
		Timeout:         3600,
		Custodians:      []CustodianRecord{},
	}
}

func TestKeyHash(t *testing.T) {
	assert.Equal(t, crypto.Keccak256Hash([]byte("k1")), KeyHash("k1"))
	r := validRecord()
	assert.Equal(t, KeyHash("k1"), r.Hash())
	assert.NotEqual(t, KeyHash("k1"), KeyHash("k2"))
}

func TestKeyRecordValidate(t *testing.T) {
	r := validRecord()
	require.NoError(t, r.Validate())

	tests := []struct {
		name   string
		mutate func(*KeyRecord)
	}{
		{"missing id", func(r *KeyRecord) { r.ID = "" }},
		{"missing contract", func(r *KeyRecord) { r.ContractAddress = "" }},
		{"missing key path", func(r *KeyRecord) { r.PrivateKeyPath = "" }},
		{"missing rpc", func(r *KeyRecord) { r.RPCURL = "" }},
		{"missing owner", func(r *KeyRecord) { r.Owner = "" }},
		{"bad contract", func(r *KeyRecord) { r.ContractAddress = "0x123" }},
		{"bad owner", func(r *KeyRecord) { r.Owner = "nope" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrConfig)
		})
	}
}

func TestCustodianUpsertAndRemove(t *testing.T) {
	r := validRecord()
	addr := "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"

	overwritten := r.UpsertCustodian(CustodianRecord{Address: addr, Role: RoleReader})
	assert.False(t, overwritten)
	require.Len(t, r.Custodians, 1)
	assert.Equal(t, "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc", r.Custodians[0].Address)

	overwritten = r.UpsertCustodian(CustodianRecord{Address: addr, Role: RoleWriter, CanPing: true})
	assert.True(t, overwritten)
	require.Len(t, r.Custodians, 1)
	assert.Equal(t, RoleWriter, r.Custodians[0].Role)
	assert.True(t, r.Custodians[0].CanPing)

	assert.Equal(t, 0, r.FindCustodian(addr))
	assert.True(t, r.RemoveCustodian(addr))
	assert.False(t, r.RemoveCustodian(addr))
	assert.Empty(t, r.Custodians)
}

func TestAddressHelpers(t *testing.T) {
	canonical, err := CanonicalAddress(" " + testOwner + " ")
	require.NoError(t, err)
	assert.Equal(t, "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", canonical)

	parsed, err := ParseAddress(testOwner)
	require.NoError(t, err)
	assert.Equal(t, canonical, AddressString(parsed))

	_, err = CanonicalAddress("0xzz")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDecodeHexData(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"0x68656c6c6f", []byte("hello")},
		{"68656c6c6f", []byte("hello")},
		{"0X00ff", []byte{0x00, 0xff}},
		{"0x", []byte{}},
	}
	for _, tt := range tests {
		got, err := DecodeHexData(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := DecodeHexData("0xabc")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = DecodeHexData("xyz")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestKindHelpers(t *testing.T) {
	err := KeyNotFound("k9")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "k9")

	assert.ErrorIs(t, ErrKeyExists, ErrConfig)
	assert.NotErrorIs(t, ErrKeyExists, ErrKeyNotFound)
}
