package daemon

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	zcommon "github.com/ruteri/zaph/common"
	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/operations"
	"github.com/ruteri/zaph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var start = time.Unix(1700000000, 0)

func testRecord(id string) interfaces.KeyRecord {
	return interfaces.KeyRecord{
		ID:              id,
		ContractAddress: "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		Owner:           "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		PrivateKeyPath:  "/nonexistent/key",
		RPCURL:          "http://127.0.0.1:8545",
		Timeout:         600,
	}
}

// recordingPinger captures the stored timestamp after every recorded ping.
type recordingPinger struct {
	*operations.Service
	timestamps []int64
}

func (p *recordingPinger) RecordPing(ctx context.Context, keyID string) error {
	if err := p.Service.RecordPing(ctx, keyID); err != nil {
		return err
	}
	record, err := p.Mirror().Find(keyID)
	if err != nil {
		return err
	}
	p.timestamps = append(p.timestamps, *record.LastPingTimestamp)
	return nil
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) PingOnChain(ctx context.Context, record *interfaces.KeyRecord, opts operations.TxOptions) (*operations.TxOutcome, error) {
	args := m.Called(ctx, record.ID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*operations.TxOutcome), args.Error(1)
}

func (m *mockPinger) RecordPing(ctx context.Context, keyID string) error {
	return m.Called(ctx, keyID).Error(0)
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestScheduler_FiveShots(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	mirror := storage.NewFileMirror(filepath.Join(t.TempDir(), "config.json"), zcommon.DiscardLogger())
	require.NoError(t, mirror.Insert(context.Background(), testRecord("k1")))

	pinger := &recordingPinger{Service: operations.NewService(operations.Config{
		Mirror: mirror,
		Clock:  clock,
		Log:    zcommon.DiscardLogger(),
	})}

	var logs bytes.Buffer
	interval := 30 * time.Second
	scheduler := NewScheduler(SchedulerConfig{
		Mirror:    mirror,
		Pinger:    pinger,
		Interval:  interval,
		Shots:     5,
		TxOptions: operations.TxOptions{Mock: true},
		Clock:     clock,
		Log:       bufferLogger(&logs),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	// four sleeps between five cycles, none after the last
	for i := 0; i < 4; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(interval)
	}
	require.NoError(t, <-done)

	assert.Equal(t, 5, strings.Count(logs.String(), `msg="Pinging key"`))
	assert.Equal(t, 5, strings.Count(logs.String(), `msg="Pinged key"`))

	require.Len(t, pinger.timestamps, 5)
	for i := 1; i < len(pinger.timestamps); i++ {
		assert.GreaterOrEqual(t, pinger.timestamps[i], pinger.timestamps[i-1])
	}
	assert.Equal(t, start.Add(4*interval).Unix(), pinger.timestamps[4])

	record, err := mirror.Find("k1")
	require.NoError(t, err)
	require.NotNil(t, record.LastPingTimestamp)
	assert.Equal(t, start.Add(4*interval).Unix(), *record.LastPingTimestamp)

	snapshot := scheduler.Status().Snapshot()
	assert.Equal(t, uint64(5), snapshot.Cycles)
	assert.Equal(t, uint64(5), snapshot.PingsOK)
	assert.Zero(t, snapshot.PingsFailed)
	assert.False(t, snapshot.Ready)
	assert.NotEmpty(t, snapshot.RunID)
}

func TestScheduler_FailureDoesNotStopCycle(t *testing.T) {
	mirror := storage.NewFileMirror(filepath.Join(t.TempDir(), "config.json"), zcommon.DiscardLogger())
	for _, id := range []string{"bad", "good"} {
		require.NoError(t, mirror.Insert(context.Background(), testRecord(id)))
	}

	pinger := &mockPinger{}
	forced := operations.TxOptions{Yes: true}
	pinger.On("PingOnChain", mock.Anything, "bad", forced).Return(nil, errors.New("execution reverted"))
	pinger.On("PingOnChain", mock.Anything, "good", forced).Return(&operations.TxOutcome{}, nil)
	pinger.On("RecordPing", mock.Anything, "good").Return(nil)

	var logs bytes.Buffer
	scheduler := NewScheduler(SchedulerConfig{
		Mirror: mirror,
		Pinger: pinger,
		Shots:  2,
		Log:    bufferLogger(&logs),
	})
	require.NoError(t, scheduler.Run(context.Background()))

	pinger.AssertNumberOfCalls(t, "PingOnChain", 4)
	pinger.AssertNumberOfCalls(t, "RecordPing", 2)
	pinger.AssertNotCalled(t, "RecordPing", mock.Anything, "bad")
	assert.Equal(t, 2, strings.Count(logs.String(), `msg="Failed to ping key"`))

	snapshot := scheduler.Status().Snapshot()
	assert.Equal(t, uint64(2), snapshot.PingsOK)
	assert.Equal(t, uint64(2), snapshot.PingsFailed)
}

func TestScheduler_UnreadableMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	mirror := storage.NewFileMirror(path, zcommon.DiscardLogger())

	pinger := &mockPinger{}
	scheduler := NewScheduler(SchedulerConfig{
		Mirror: mirror,
		Pinger: pinger,
		Shots:  3,
		Log:    zcommon.DiscardLogger(),
	})
	require.NoError(t, scheduler.Run(context.Background()))

	snapshot := scheduler.Status().Snapshot()
	assert.Equal(t, uint64(3), snapshot.Cycles)
	assert.Equal(t, uint64(3), snapshot.FailedCycles)
	pinger.AssertNotCalled(t, "PingOnChain", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduler_CancelStopsLoop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	mirror := storage.NewFileMirror(filepath.Join(t.TempDir(), "config.json"), zcommon.DiscardLogger())

	scheduler := NewScheduler(SchedulerConfig{
		Mirror:   mirror,
		Pinger:   &mockPinger{},
		Interval: time.Hour,
		Clock:    clock,
		Log:      zcommon.DiscardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-waitCtx.Done():
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, uint64(1), scheduler.Status().Snapshot().Cycles)
}
