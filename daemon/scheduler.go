package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/ruteri/zaph/interfaces"
	"github.com/ruteri/zaph/operations"
)

// Pinger performs the on-chain ping of a key and records it locally.
// *operations.Service implements it.
type Pinger interface {
	PingOnChain(ctx context.Context, record *interfaces.KeyRecord, opts operations.TxOptions) (*operations.TxOutcome, error)
	RecordPing(ctx context.Context, keyID string) error
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Mirror interfaces.KeyMirror
	Pinger Pinger

	// Interval is slept between cycles. Zero runs cycles back to back.
	Interval time.Duration
	// Shots bounds the number of cycles. Zero runs until the context is cancelled.
	Shots uint64
	// TxOptions apply to every ping; Yes is always forced.
	TxOptions operations.TxOptions

	Clock clockwork.Clock
	Log   *slog.Logger
}

// Scheduler pings every key in the mirror once per cycle.
type Scheduler struct {
	cfg    SchedulerConfig
	status *Status
	log    *slog.Logger
}

// NewScheduler creates a scheduler tagged with a fresh run id.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	cfg.TxOptions.Yes = true

	runID := uuid.Must(uuid.NewRandom()).String()
	return &Scheduler{
		cfg:    cfg,
		status: NewStatus(runID),
		log:    cfg.Log.With("runID", runID),
	}
}

// Status exposes the scheduler's counters.
func (s *Scheduler) Status() *Status {
	return s.status
}

// Run executes cycles until Shots is reached or ctx is cancelled. A bounded
// run does not sleep after its last cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("Daemon started",
		"interval", s.cfg.Interval,
		"shots", s.cfg.Shots,
		"config", s.cfg.Mirror.Path())
	s.status.ready.Store(true)
	defer s.status.ready.Store(false)

	for shot := uint64(1); ; shot++ {
		s.RunCycle(ctx)

		if ctx.Err() != nil {
			s.log.Info("Daemon stopped", "reason", ctx.Err())
			return ctx.Err()
		}
		if s.cfg.Shots > 0 && shot >= s.cfg.Shots {
			s.log.Info("Daemon finished", "cycles", shot)
			return nil
		}

		if s.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				s.log.Info("Daemon stopped", "reason", ctx.Err())
				return ctx.Err()
			case <-s.cfg.Clock.After(s.cfg.Interval):
			}
		}
	}
}

// RunCycle pings every key once, sequentially. Failures are logged and do
// not stop the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) {
	s.log.Info("Starting ping cycle")
	defer func() {
		s.status.cycles.Inc()
		s.status.lastCycle.Store(s.cfg.Clock.Now().Unix())
	}()

	records, err := s.cfg.Mirror.ReadAll()
	if err != nil {
		s.log.Error("Failed to read config", "err", err)
		s.status.failedCycles.Inc()
		return
	}

	for i := range records {
		if ctx.Err() != nil {
			return
		}
		s.pingKey(ctx, &records[i])
	}
}

func (s *Scheduler) pingKey(ctx context.Context, record *interfaces.KeyRecord) {
	log := s.log.With("keyID", record.ID)
	log.Info("Pinging key")

	result, err := s.cfg.Pinger.PingOnChain(ctx, record, s.cfg.TxOptions)
	if err != nil {
		s.status.pingsFailed.Inc()
		log.Warn("Failed to ping key", "err", err)
		return
	}
	log.Info("Pinged key", "tx", result.Hash.Hex(), "mock", result.Mock)

	if err := s.cfg.Pinger.RecordPing(ctx, record.ID); err != nil {
		s.status.pingsFailed.Inc()
		log.Warn("Pinged on-chain but could not record ping time", "err", err)
		return
	}
	s.status.pingsOK.Inc()
}
