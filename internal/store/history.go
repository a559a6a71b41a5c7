package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"pricewatch/internal/model"
)

// Recorder receives every successful price sample for archival.
type Recorder interface {
	Record(sample model.PriceSample)
}

// RecorderFunc is a function adapter for Recorder.
type RecorderFunc func(sample model.PriceSample)

func (f RecorderFunc) Record(s model.PriceSample) { f(s) }

// HistoryConfig holds batching settings for the history writer.
type HistoryConfig struct {
	BatchSize     int           // Flush when the batch reaches this size (default: 100)
	FlushInterval time.Duration // Flush at least this often (default: 5s)
}

// HistoryMetrics counts writer activity.
type HistoryMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// batchSender is the slice of pgxpool.Pool the writer needs.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// History writes price samples to the price_history table in batches.
type History struct {
	cfg    HistoryConfig
	db     batchSender
	logger *slog.Logger

	batchMu sync.Mutex
	batch   []model.PriceSample
	metrics HistoryMetrics

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	flushTicker *time.Ticker
}

// NewHistory creates a history writer over an existing pool.
func NewHistory(cfg HistoryConfig, db batchSender, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &History{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]model.PriceSample, 0, cfg.BatchSize),
	}
}

// Start begins the periodic flush loop.
func (h *History) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.flushTicker = time.NewTicker(h.cfg.FlushInterval)

	h.wg.Add(1)
	go h.flushLoop()

	h.logger.Info("history writer started",
		"batch_size", h.cfg.BatchSize,
		"flush_interval", h.cfg.FlushInterval,
	)
	return nil
}

// Stop flushes the remaining batch and shuts down.
func (h *History) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}
	if h.flushTicker != nil {
		h.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn("history writer stop timed out")
	}

	// The loop context is cancelled by now; the final flush runs on the
	// caller's so the remaining batch still lands.
	h.flush(ctx)
	h.logger.Info("history writer stopped")
	return nil
}

// Record queues a sample for insertion.
func (h *History) Record(sample model.PriceSample) {
	h.batchMu.Lock()
	h.batch = append(h.batch, sample)
	shouldFlush := len(h.batch) >= h.cfg.BatchSize
	h.batchMu.Unlock()

	if shouldFlush {
		h.flush(h.ctx)
	}
}

// Stats returns current metrics.
func (h *History) Stats() HistoryMetrics {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	return h.metrics
}

func (h *History) flushLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.flushTicker.C:
			h.flush(h.ctx)
		}
	}
}

func (h *History) flush(ctx context.Context) {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := h.batch
	h.batch = make([]model.PriceSample, 0, h.cfg.BatchSize)
	h.batchMu.Unlock()

	start := time.Now()

	conflicts, err := h.batchInsert(ctx, batch)
	if err != nil {
		h.logger.Error("history batch insert failed", "error", err, "count", len(batch))
		h.batchMu.Lock()
		h.metrics.Errors++
		h.batchMu.Unlock()
		return
	}

	h.batchMu.Lock()
	h.metrics.Inserts += int64(len(batch) - conflicts)
	h.metrics.Conflicts += int64(conflicts)
	h.metrics.Flushes++
	h.batchMu.Unlock()

	h.logger.Debug("flushed price history",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (h *History) batchInsert(ctx context.Context, samples []model.PriceSample) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(`
			INSERT INTO price_history (item_id, fetched_at, price, currency, retailer, link)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (item_id, fetched_at) DO NOTHING
		`, s.ItemID, s.FetchedAt, s.Price.String(), s.Currency, s.Retailer, s.Link)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	results := h.db.SendBatch(ctx, batch)
	defer results.Close()

	for range samples {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
