package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 3 * time.Hour

// Syncer is the job the scheduler runs.
type Syncer interface {
	SyncWeather(ctx context.Context)
}

// Scheduler periodically triggers a weather sync.
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Each run gets a context bounded by timeout;
// a zero timeout leaves runs unbounded.
func New(interval, timeout time.Duration, syncer Syncer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		syncer:    syncer,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	// Singleton mode skips a tick while the previous run is still going.
	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	slog.Info("Starting scheduler", slog.Duration("interval", interval))
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	slog.Debug("scheduler: running weather sync job")
	s.syncer.SyncWeather(ctx)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		slog.Info("Stopping scheduler")
		s.scheduler.Stop()
	}
}
