package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/forecast-sync/internal/logfields"
)

// State names a step of a sync run.
type State string

const (
	StateFetching    State = "fetching"
	StateParsing     State = "parsing"
	StateNoData      State = "no_data"
	StateReplacing   State = "replacing"
	StateSummarizing State = "summarizing"
	StateNoSummary   State = "no_summary"
	StateDeciding    State = "deciding"
	StateNotify      State = "notify"
	StateSkip        State = "skip"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Result describes how a single sync run ended.
type Result struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Trace     []State       `json:"trace"`
	State     State         `json:"state"`
	Kind      ErrorKind     `json:"kind,omitempty"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	Records   int           `json:"records"`
	Summary   *Summary      `json:"summary,omitempty"`
	Notified  bool          `json:"notified"`
}

func (r *Result) enter(st State) {
	r.Trace = append(r.Trace, st)
}

func (r *Result) done() {
	r.enter(StateDone)
	r.State = StateDone
}

func (r *Result) fail(err error) {
	r.enter(StateFailed)
	r.State = StateFailed
	r.Kind = KindOf(err)
	r.Err = err
	r.Error = err.Error()
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDeviceSink sets the secondary-device sink.
func WithDeviceSink(d DeviceSink) Option {
	return func(s *Service) { s.device = d }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service runs the forecast sync pipeline and serves the stored forecast.
type Service struct {
	// mu serializes runs: ReplaceAll is destructive, two interleaved runs
	// could leave the store empty or duplicated.
	mu sync.Mutex

	store    Store
	provider Provider
	prefs    Preferences
	notifier Notifier
	device   DeviceSink
	recorder Recorder
	now      func() time.Time

	lastMu sync.RWMutex
	last   *Result
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, prefs Preferences, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		prefs:    prefs,
		notifier: notifier,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncWeather runs one sync. It never fails to its caller; the outcome is
// logged and available through LastResult.
func (s *Service) SyncWeather(ctx context.Context) {
	s.Run(ctx)
}

// Run executes one sync and returns its result. Concurrent callers block
// until the run in progress has finished.
func (s *Service) Run(ctx context.Context) (res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	began := time.Now()
	now := s.now()
	res = Result{RunID: uuid.NewString(), StartedAt: now}

	defer func() {
		if r := recover(); r != nil {
			res.fail(NewError(KindUnexpected, "sync", fmt.Errorf("panic: %v", r)))
		}
		res.Duration = time.Since(began)
		s.finish(&res)
	}()

	s.run(ctx, now, &res)
	return res
}

func (s *Service) run(ctx context.Context, now time.Time, res *Result) {
	res.enter(StateFetching)
	loc, err := s.prefs.Location(ctx)
	if err != nil {
		res.fail(NewError(KindUnexpected, "read location", err))
		return
	}
	units, err := s.prefs.Units(ctx)
	if err != nil {
		res.fail(NewError(KindUnexpected, "read units", err))
		return
	}
	raw, err := s.provider.Fetch(ctx, loc, units)
	if err != nil {
		res.fail(wrapKind(KindNetwork, "fetch", err))
		return
	}

	res.enter(StateParsing)
	today := NormalizeDate(now)
	records := s.provider.Normalize(raw, today, units)
	if len(records) == 0 {
		// Prior data stays in place; there is nothing to replace it with.
		res.enter(StateNoData)
		res.Kind = KindNoData
		res.done()
		return
	}

	res.enter(StateReplacing)
	if err := s.store.ReplaceAll(ctx, records); err != nil {
		res.fail(wrapKind(KindStorage, "replace records", err))
		return
	}
	res.Records = len(records)
	s.recorder.SetStoredRecords(len(records))

	res.enter(StateSummarizing)
	summary, ok, err := s.store.QueryToday(ctx, today)
	if err != nil {
		res.fail(wrapKind(KindStorage, "query today", err))
		return
	}
	if ok {
		res.Summary = &summary
	} else {
		res.enter(StateNoSummary)
	}

	res.enter(StateDeciding)
	enabled, err := s.prefs.NotificationsEnabled(ctx)
	if err != nil {
		res.fail(NewError(KindUnexpected, "read notification preference", err))
		return
	}
	last, err := s.prefs.LastNotifiedAt(ctx)
	if err != nil {
		res.fail(NewError(KindUnexpected, "read last notification", err))
		return
	}
	if !ShouldNotify(now, last, enabled) {
		res.enter(StateSkip)
		res.done()
		return
	}

	res.enter(StateNotify)
	if err := s.notifier.NotifyUser(ctx, Notification{Summary: res.Summary, Units: units}); err != nil {
		res.fail(NewError(KindUnexpected, "notify user", err))
		return
	}
	res.Notified = true
	s.recorder.IncNotifications()

	if err := s.prefs.RecordNotified(ctx, now); err != nil {
		res.fail(NewError(KindUnexpected, "record notification", err))
		return
	}

	if res.Summary != nil {
		s.sendToDevice(ctx, res.RunID, *res.Summary, units)
	}
	res.done()
}

func (s *Service) sendToDevice(ctx context.Context, runID string, sum Summary, units Units) {
	if s.device == nil {
		return
	}
	err := s.device.Send(ctx, DeviceSummary{
		Condition: sum.Description(),
		Icon:      ConditionIcon(sum.WeatherID),
		High:      sum.MaxTemp,
		Low:       sum.MinTemp,
		Units:     units,
	})
	if err != nil {
		s.recorder.IncDeviceSendFailures()
		slog.Warn("Device hand-off failed", logfields.RunID(runID), logfields.Error(err))
	}
}

func (s *Service) finish(res *Result) {
	s.recorder.ObserveSync(res.State, res.Kind, res.Duration)

	s.lastMu.Lock()
	r := *res
	s.last = &r
	s.lastMu.Unlock()

	attrs := []any{
		logfields.RunID(res.RunID),
		logfields.State(string(res.State)),
		logfields.Records(res.Records),
		logfields.DurationMS(float64(res.Duration.Microseconds()) / 1000),
	}
	switch {
	case res.State == StateFailed:
		slog.Error("Weather sync failed", append(attrs, logfields.Kind(string(res.Kind)), logfields.Error(res.Err))...)
	case res.Kind == KindNoData:
		slog.Info("Weather sync found no new data", attrs...)
	default:
		slog.Info("Weather sync completed", append(attrs, slog.Bool("notified", res.Notified))...)
	}
}

// LastResult returns the result of the most recent run.
func (s *Service) LastResult() (Result, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Today returns the current day, by the service clock, and its stored summary.
func (s *Service) Today(ctx context.Context) (time.Time, Summary, bool, error) {
	day := NormalizeDate(s.now())
	sum, ok, err := s.store.QueryToday(ctx, day)
	return day, sum, ok, err
}

// Forecast returns up to days stored records, starting with the earliest.
func (s *Service) Forecast(ctx context.Context, days int) ([]Record, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than zero")
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > days {
		records = records[:days]
	}
	return records, nil
}
