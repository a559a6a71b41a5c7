package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pricewatch/internal/detect"
	"pricewatch/internal/model"
	"pricewatch/internal/notify"
	"pricewatch/internal/source"
	"pricewatch/internal/store"
)

// Catalog provides the items to poll each cycle.
type Catalog interface {
	Load(ctx context.Context) ([]model.Item, error)
}

// CatalogFunc is a function adapter for Catalog.
type CatalogFunc func(ctx context.Context) ([]model.Item, error)

func (f CatalogFunc) Load(ctx context.Context) ([]model.Item, error) { return f(ctx) }

// cycleState names the per-item states of the poll cycle.
type cycleState int

const (
	stateIdle cycleState = iota
	stateFetching
	stateEvaluating
	stateNotifying
)

func (s cycleState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateEvaluating:
		return "evaluating"
	case stateNotifying:
		return "notifying"
	default:
		return "idle"
	}
}

// Config holds scheduler configuration.
type Config struct {
	Interval               time.Duration // Poll interval (default: 30m)
	ItemDelay              time.Duration // Pause between items within a cycle (default: 5s)
	FetchTimeout           time.Duration // Per-fetch bound (default: 20s)
	NotifyTimeout          time.Duration // Per-delivery bound (default: 10s)
	MaxConsecutiveFailures int           // Degraded once any item exceeds this (default: 3)
	BasePolicy             detect.Policy
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:               30 * time.Minute,
		ItemDelay:              5 * time.Second,
		FetchTimeout:           20 * time.Second,
		NotifyTimeout:          10 * time.Second,
		MaxConsecutiveFailures: 3,
		BasePolicy:             detect.Policy{Direction: detect.DirectionAny},
	}
}

// Monitor runs the poll cycle. Single writer for all monitor state; the
// status server only reads the snapshot cell.
type Monitor struct {
	cfg      Config
	catalog  Catalog
	source   source.Source
	store    store.Store
	notifier notify.Notifier
	recorder store.Recorder // optional price-history sink
	logger   *slog.Logger

	health    *SnapshotCell
	startedAt time.Time

	cycles          int64
	alertsSent      int64
	catalogFailures int
	lastPrice       *decimal.Decimal

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Monitor.
func New(cfg Config, catalog Catalog, src source.Source, st store.Store, notifier notify.Notifier, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	if cfg.NotifyTimeout == 0 {
		cfg.NotifyTimeout = DefaultConfig().NotifyTimeout
	}
	if cfg.MaxConsecutiveFailures == 0 {
		cfg.MaxConsecutiveFailures = DefaultConfig().MaxConsecutiveFailures
	}

	now := time.Now().UTC()
	return &Monitor{
		cfg:       cfg,
		catalog:   catalog,
		source:    src,
		store:     st,
		notifier:  notifier,
		logger:    logger,
		health:    NewSnapshotCell(now),
		startedAt: now,
	}
}

// SetRecorder attaches an optional price-history sink.
func (m *Monitor) SetRecorder(r store.Recorder) { m.recorder = r }

// Health returns the snapshot cell read by the status server.
func (m *Monitor) Health() *SnapshotCell { return m.health }

// Start begins the polling loop. The first cycle runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("monitor started",
		"interval", m.cfg.Interval,
		"max_consecutive_failures", m.cfg.MaxConsecutiveFailures,
	)
	return nil
}

// Stop shuts the loop down, letting an in-flight cycle finish.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	m.runCycle()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.runCycle()
		}
	}
}

// runCycle polls every catalog item once, strictly in sequence, then swaps
// in a fresh health snapshot.
func (m *Monitor) runCycle() {
	start := time.Now().UTC()
	m.cycles++

	items, err := m.catalog.Load(m.ctx)
	if err != nil {
		m.catalogFailures++
		m.logger.Error("catalog load failed, skipping cycle",
			"error", err,
			"consecutive_failures", m.catalogFailures,
		)
		m.reportError(fmt.Sprintf("failed to load catalog: %v", err))
		m.publishFailedCycle(start, err)
		return
	}
	m.catalogFailures = 0

	var (
		succeeded   int
		maxFailures int
		lastErr     error
	)

	for i, item := range items {
		if m.ctx.Err() != nil {
			return
		}
		if i > 0 && m.cfg.ItemDelay > 0 {
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.cfg.ItemDelay):
			}
		}

		failures, err := m.checkItem(item)
		if err != nil {
			lastErr = err
		} else {
			succeeded++
		}
		if failures > maxFailures {
			maxFailures = failures
		}
	}

	m.publishSnapshot(start, len(items), succeeded, maxFailures, lastErr)

	m.logger.Info("poll cycle complete",
		"cycle", m.cycles,
		"items", len(items),
		"succeeded", succeeded,
		"duration", time.Since(start),
	)
}

// checkItem runs one item through the fetch -> evaluate -> notify states and
// persists the resulting state. Returns the item's consecutive-failure count
// and the cycle error, if any. Store failures are surfaced loudly but never
// stop the loop.
func (m *Monitor) checkItem(item model.Item) (failures int, cycleErr error) {
	logger := m.logger.With("item", item.ID)

	st, err := m.store.Load(m.ctx, item.ID)
	if err != nil {
		// Without prior state a fetched price would look like a first
		// observation, so skip the item entirely this cycle.
		logger.Error("state load failed, skipping item", "error", err)
		return 0, err
	}
	if st == nil {
		st = &model.MonitorState{ItemID: item.ID}
	}

	state := stateFetching
	logger.Debug("cycle state", "state", state.String())

	fetchCtx, cancel := context.WithTimeout(m.ctx, m.cfg.FetchTimeout)
	sample, err := m.source.Fetch(fetchCtx, item)
	cancel()
	if err != nil {
		// A fetch cut short by shutdown is not a source failure; restarts
		// must not inherit an inflated failure count.
		if errors.Is(err, context.Canceled) && m.ctx.Err() != nil {
			logger.Debug("fetch aborted by shutdown")
			return st.ConsecutiveFailures, err
		}
		st.RecordFailure(time.Now().UTC())
		logger.Warn("fetch failed",
			"error", err,
			"error_kind", string(source.Kind(err)),
			"consecutive_failures", st.ConsecutiveFailures,
		)
		if st.ConsecutiveFailures == m.cfg.MaxConsecutiveFailures+1 {
			logger.Error("item is failing persistently",
				"consecutive_failures", st.ConsecutiveFailures)
		}
		m.saveState(logger, *st)
		return st.ConsecutiveFailures, err
	}

	state = stateEvaluating
	logger.Debug("cycle state", "state", state.String())

	policy := m.cfg.BasePolicy.ForItem(item)
	policy.LastAlertKind = st.LastAlertKind

	event, evalErr := detect.Evaluate(st.LastSample, sample, policy)
	if evalErr != nil {
		logger.Warn("evaluation anomaly, no event", "error", evalErr)
	}

	if err := st.ApplySample(sample); err != nil {
		// Stale sample: keep the prior state, count the cycle as failed.
		st.RecordFailure(time.Now().UTC())
		logger.Warn("sample rejected", "error", err)
		m.saveState(logger, *st)
		return st.ConsecutiveFailures, err
	}

	m.lastPrice = &sample.Price
	if m.recorder != nil {
		m.recorder.Record(sample)
	}

	if event != nil {
		state = stateNotifying
		logger.Debug("cycle state", "state", state.String())

		// The event is remembered before delivery is attempted: a detected
		// change must never re-alert on the next cycle because the webhook
		// happened to be down.
		st.LastAlertKind = event.Kind

		notifyCtx, cancel := context.WithTimeout(m.ctx, m.cfg.NotifyTimeout)
		err := m.notifier.Notify(notifyCtx, *event)
		cancel()
		if err != nil {
			logger.Error("alert delivery failed", "event_id", event.EventID, "error", err)
		} else {
			m.alertsSent++
			logger.Info("alert delivered",
				"event_id", event.EventID,
				"kind", event.Kind,
				"previous", event.Previous.Price,
				"current", event.Current.Price,
				"delta_percent", event.DeltaPercent.Round(1),
			)
		}
	}

	m.saveState(logger, *st)

	state = stateIdle
	logger.Debug("cycle state", "state", state.String(),
		"price", sample.Price, "retailer", sample.Retailer)

	return st.ConsecutiveFailures, nil
}

// saveState persists item state, logging loudly on store trouble.
func (m *Monitor) saveState(logger *slog.Logger, st model.MonitorState) {
	if err := m.store.Save(m.ctx, st); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			logger.Error("state store unavailable, state not persisted", "error", err)
		} else {
			logger.Error("state save failed", "error", err)
		}
	}
}

// publishSnapshot swaps a fresh health snapshot into the cell.
func (m *Monitor) publishSnapshot(at time.Time, items, succeeded, maxFailures int, lastErr error) {
	outcome := model.OutcomeSuccess
	if items > 0 && succeeded == 0 {
		outcome = model.OutcomeFailure
	}

	snap := model.HealthSnapshot{
		StartedAt:   m.startedAt,
		LastCheck:   at,
		LastOutcome: outcome,
		LastPrice:   m.lastPrice,
		Cycles:      m.cycles,
		Items:       items,
		AlertsSent:  m.alertsSent,
		MaxFailures: maxFailures,
		Degraded:    maxFailures > m.cfg.MaxConsecutiveFailures,
	}
	if lastErr != nil {
		snap.LastError = lastErr.Error()
	}

	m.health.Store(snap)
}

// publishFailedCycle records a cycle that never reached the items. Per-item
// failure counts cannot improve on such a cycle, so the previous snapshot's
// are carried forward; a healthy monitor must never look healthier because
// the catalog went away. Consecutive catalog failures degrade health on
// their own against the same threshold.
func (m *Monitor) publishFailedCycle(at time.Time, cycleErr error) {
	prev := m.health.Load()

	maxFailures := prev.MaxFailures
	if m.catalogFailures > maxFailures {
		maxFailures = m.catalogFailures
	}

	m.health.Store(model.HealthSnapshot{
		StartedAt:   m.startedAt,
		LastCheck:   at,
		LastOutcome: model.OutcomeFailure,
		LastPrice:   m.lastPrice,
		LastError:   cycleErr.Error(),
		Cycles:      m.cycles,
		Items:       prev.Items,
		AlertsSent:  m.alertsSent,
		MaxFailures: maxFailures,
		Degraded:    maxFailures > m.cfg.MaxConsecutiveFailures,
	})
}

// reportError pushes an operational error to the notifier when it supports it.
func (m *Monitor) reportError(message string) {
	reporter, ok := m.notifier.(notify.ErrorReporter)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.NotifyTimeout)
	defer cancel()
	if err := reporter.ReportError(ctx, message); err != nil {
		m.logger.Warn("error report delivery failed", "error", err)
	}
}
