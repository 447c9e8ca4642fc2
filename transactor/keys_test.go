package transactor

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/zaph/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestKeySource_Formats(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	raw := hex.EncodeToString(crypto.FromECDSA(key))
	want := crypto.PubkeyToAddress(key.PublicKey)

	for name, contents := range map[string]string{
		"bare":     raw,
		"prefixed": "0x" + raw,
		"newline":  "0x" + raw + "\n",
		"padded":   "  " + raw + " \n",
	} {
		t.Run(name, func(t *testing.T) {
			source := NewKeySource(writeKeyFile(t, contents))
			addr, err := source.Address()
			require.NoError(t, err)
			assert.Equal(t, want, addr)
		})
	}
}

func TestKeySource_CachesAfterFirstLoad(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	path := writeKeyFile(t, hex.EncodeToString(crypto.FromECDSA(key)))

	source := NewKeySource(path)
	first, err := source.Key()
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	second, err := source.Key()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, path, source.Path())
}

func TestKeySource_Errors(t *testing.T) {
	_, err := NewKeySource(filepath.Join(t.TempDir(), "missing")).Key()
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrConfig)

	_, err = NewKeySource(writeKeyFile(t, "not-a-key")).Key()
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrValidation)
	assert.Contains(t, err.Error(), "invalid private key format from path")
}
