package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ruteri/zaph/common"
	"github.com/ruteri/zaph/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T) *FileMirror {
	t.Helper()
	return NewFileMirror(filepath.Join(t.TempDir(), "zaphenath", "config.json"), common.DiscardLogger())
}

func sampleRecord(id string) interfaces.KeyRecord {
	ts := int64(1700000000)
	return interfaces.KeyRecord{
		ID:                id,
		ContractAddress:   "0x0000000000000000000000000000000000000001",
		Owner:             "0x00000000000000000000000000000000000000aa",
		PrivateKeyPath:    "/fake/key",
		Network:           "sepolia",
		RPCURL:            "http://localhost:8545",
		Timeout:           123,
		LastPingTimestamp: &ts,
		Custodians: []interfaces.CustodianRecord{
			{Address: "0x00000000000000000000000000000000000000bb", Role: interfaces.RoleReader, CanPing: true},
		},
	}
}

func TestFileMirror_ReadAllMissingFile(t *testing.T) {
	m := newTestMirror(t)

	records, err := m.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = os.Stat(m.Path())
	assert.True(t, os.IsNotExist(err), "reading must not create the file")
}

func TestFileMirror_RoundTrip(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	written := []interfaces.KeyRecord{sampleRecord("abc123"), sampleRecord("def456")}
	written[1].LastPingTimestamp = nil
	written[1].Custodians = []interfaces.CustodianRecord{}

	require.NoError(t, m.WriteAll(ctx, written))

	read, err := m.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, written, read)

	raw, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"key_id\": \"abc123\"", "mirror should be pretty-printed")
	assert.Contains(t, string(raw), `"role": "reader"`)
}

func TestFileMirror_RoundTripNilCustodians(t *testing.T) {
	m := newTestMirror(t)

	written := []interfaces.KeyRecord{{ID: "bare", RPCURL: "http://localhost:8545"}}
	require.NoError(t, m.WriteAll(context.Background(), written))

	read, err := m.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, written, read)
	assert.NotNil(t, read[0].Custodians)

	raw, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"custodians": []`)
	assert.NotContains(t, string(raw), "null")
}

func TestFileMirror_InvalidFormat(t *testing.T) {
	m := newTestMirror(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(m.Path()), 0755))
	require.NoError(t, os.WriteFile(m.Path(), []byte(`{"key_id":"x"}`), 0644))

	_, err := m.ReadAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrConfig)
}

func TestFileMirror_InsertFindRemove(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, sampleRecord("k1")))

	err := m.Insert(ctx, sampleRecord("k1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrKeyExists)

	found, err := m.Find("k1")
	require.NoError(t, err)
	assert.Equal(t, uint64(123), found.Timeout)

	_, err = m.Find("missing")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, m.Remove(ctx, "k1"))
	records, err := m.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	err = m.Remove(ctx, "k1")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestFileMirror_UpdateInPlace(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()
	require.NoError(t, m.Insert(ctx, sampleRecord("k1")))

	err := m.UpdateInPlace(ctx, "k1", func(r *interfaces.KeyRecord) error {
		r.Timeout = 600
		r.Data = "feedbeef"
		return nil
	})
	require.NoError(t, err)

	found, err := m.Find("k1")
	require.NoError(t, err)
	assert.Equal(t, uint64(600), found.Timeout)
	assert.Equal(t, "feedbeef", found.Data)
}

func TestFileMirror_UpdateErrorLeavesFileUntouched(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()
	require.NoError(t, m.Insert(ctx, sampleRecord("k1")))

	before, err := os.ReadFile(m.Path())
	require.NoError(t, err)

	err = m.UpdateInPlace(ctx, "k1", func(r *interfaces.KeyRecord) error {
		r.Timeout = 1
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	after, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileMirror_ConcurrentWritersDoNotClobber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// separate instances model separate processes
			m := NewFileMirror(path, common.DiscardLogger())
			errs <- m.Insert(ctx, sampleRecord(fmt.Sprintf("key-%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := NewFileMirror(path, common.DiscardLogger()).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, writers)
}

func TestFileMirror_LockHonoursContext(t *testing.T) {
	m := newTestMirror(t)
	require.NoError(t, m.WriteAll(context.Background(), nil))

	holder := NewFileMirror(m.Path(), common.DiscardLogger())
	locked, err := holder.lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer holder.lock.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = m.Insert(ctx, sampleRecord("k1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrConfig)
}
