package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/ruteri/zaph/interfaces"
)

// lockRetryDelay is how often a blocked writer retries the advisory lock.
const lockRetryDelay = 50 * time.Millisecond

// FileMirror implements interfaces.KeyMirror on top of a single JSON file.
// The file holds an array of key records. Reads are lock-free; every
// read-modify-write holds an advisory lock on "<path>.lock" so that a running
// daemon and a manual command never overwrite each other's updates.
type FileMirror struct {
	path string
	lock *flock.Flock
	log  *slog.Logger
}

// NewFileMirror creates a mirror backed by path. The parent directory is
// created on first write.
func NewFileMirror(path string, log *slog.Logger) *FileMirror {
	return &FileMirror{
		path: path,
		lock: flock.New(path + ".lock"),
		log:  log,
	}
}

// Path returns the location of the mirror file.
func (m *FileMirror) Path() string {
	return m.path
}

// ReadAll returns every record. A missing file yields an empty slice.
func (m *FileMirror) ReadAll() ([]interfaces.KeyRecord, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return []interfaces.KeyRecord{}, nil
	}
	if err != nil {
		return nil, interfaces.Configf("failed to read config %s: %v", m.path, err)
	}

	records := []interfaces.KeyRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, interfaces.Configf("invalid config format in %s, expected array of keys: %v", m.path, err)
	}

	for i := range records {
		if records[i].Custodians == nil {
			records[i].Custodians = []interfaces.CustodianRecord{}
		}
	}

	m.log.Debug("Read key mirror",
		slog.String("path", m.path),
		slog.Int("keys", len(records)))

	return records, nil
}

// WriteAll atomically replaces the whole mirror. Records with a nil custodian
// list are updated to an empty one.
func (m *FileMirror) WriteAll(ctx context.Context, records []interfaces.KeyRecord) error {
	return m.withLock(ctx, func() error {
		return m.writeFile(records)
	})
}

// Find returns a copy of the record with the given id.
func (m *FileMirror) Find(keyID string) (*interfaces.KeyRecord, error) {
	records, err := m.ReadAll()
	if err != nil {
		return nil, err
	}
	idx := indexOf(records, keyID)
	if idx < 0 {
		return nil, interfaces.KeyNotFound(keyID)
	}
	record := records[idx]
	return &record, nil
}

// Insert appends a record, failing with ErrKeyExists on id collision.
func (m *FileMirror) Insert(ctx context.Context, record interfaces.KeyRecord) error {
	return m.Update(ctx, func(records []interfaces.KeyRecord) ([]interfaces.KeyRecord, error) {
		if indexOf(records, record.ID) >= 0 {
			return nil, fmt.Errorf("%w: '%s'", interfaces.ErrKeyExists, record.ID)
		}
		if record.Custodians == nil {
			record.Custodians = []interfaces.CustodianRecord{}
		}
		return append(records, record), nil
	})
}

// UpdateInPlace applies fn to the record with the given id and persists the result.
func (m *FileMirror) UpdateInPlace(ctx context.Context, keyID string, fn func(*interfaces.KeyRecord) error) error {
	return m.Update(ctx, func(records []interfaces.KeyRecord) ([]interfaces.KeyRecord, error) {
		idx := indexOf(records, keyID)
		if idx < 0 {
			return nil, interfaces.KeyNotFound(keyID)
		}
		if err := fn(&records[idx]); err != nil {
			return nil, err
		}
		return records, nil
	})
}

// Remove deletes the record with the given id.
func (m *FileMirror) Remove(ctx context.Context, keyID string) error {
	return m.Update(ctx, func(records []interfaces.KeyRecord) ([]interfaces.KeyRecord, error) {
		idx := indexOf(records, keyID)
		if idx < 0 {
			return nil, interfaces.KeyNotFound(keyID)
		}
		return append(records[:idx], records[idx+1:]...), nil
	})
}

// Update runs a locked read-modify-write cycle. If fn returns an error
// nothing is written.
func (m *FileMirror) Update(ctx context.Context, fn func([]interfaces.KeyRecord) ([]interfaces.KeyRecord, error)) error {
	return m.withLock(ctx, func() error {
		records, err := m.ReadAll()
		if err != nil {
			return err
		}
		updated, err := fn(records)
		if err != nil {
			return err
		}
		return m.writeFile(updated)
	})
}

func (m *FileMirror) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return interfaces.Configf("failed to create config directory: %v", err)
	}

	locked, err := m.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return interfaces.Configf("failed to lock config %s: %v", m.path, err)
	}
	if !locked {
		return interfaces.Configf("could not acquire lock on %s", m.path)
	}
	defer func() {
		if err := m.lock.Unlock(); err != nil {
			m.log.Warn("Failed to release config lock", "path", m.path, "err", err)
		}
	}()

	return fn()
}

// writeFile must be called with the lock held. Nil custodian lists are
// replaced in place so the records match what a later read returns.
func (m *FileMirror) writeFile(records []interfaces.KeyRecord) error {
	if records == nil {
		records = []interfaces.KeyRecord{}
	}
	for i := range records {
		if records[i].Custodians == nil {
			records[i].Custodians = []interfaces.CustodianRecord{}
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return interfaces.Configf("failed to serialize config: %v", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return interfaces.Configf("failed to write config: %v", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return interfaces.Configf("failed to write config: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return interfaces.Configf("failed to sync config: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return interfaces.Configf("failed to write config: %v", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return interfaces.Configf("failed to replace config: %v", err)
	}

	m.log.Debug("Wrote key mirror",
		slog.String("path", m.path),
		slog.Int("keys", len(records)))

	return nil
}

func indexOf(records []interfaces.KeyRecord, keyID string) int {
	for i := range records {
		if records[i].ID == keyID {
			return i
		}
	}
	return -1
}
