package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/model"
)

type sentBatch struct {
	rows   int
	ctxErr error // ctx.Err() at send time
}

// fakeBatchSender records every batch handed to it and reports success for
// each queued insert.
type fakeBatchSender struct {
	mu   sync.Mutex
	sent []sentBatch
}

func (f *fakeBatchSender) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentBatch{rows: b.Len(), ctxErr: ctx.Err()})
	return &fakeBatchResults{}
}

func (f *fakeBatchSender) batches() []sentBatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentBatch(nil), f.sent...)
}

type fakeBatchResults struct{}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}
func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, nil }
func (r *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (r *fakeBatchResults) Close() error             { return nil }

func historySample(itemID string, at time.Time) model.PriceSample {
	return model.PriceSample{
		ItemID:    itemID,
		Price:     decimal.RequireFromString("99.99"),
		Currency:  "GBP",
		Retailer:  "Argos",
		FetchedAt: at,
	}
}

func TestHistory_StopFlushesRemainingBatch(t *testing.T) {
	sender := &fakeBatchSender{}
	h := NewHistory(HistoryConfig{BatchSize: 100, FlushInterval: time.Hour}, sender, nil)

	require.NoError(t, h.Start(context.Background()))

	now := time.Now().UTC()
	h.Record(historySample("item-1", now))
	h.Record(historySample("item-1", now.Add(time.Minute)))

	require.NoError(t, h.Stop(context.Background()))

	sent := sender.batches()
	require.Len(t, sent, 1, "pending samples must be flushed on stop")
	assert.Equal(t, 2, sent[0].rows)
	assert.NoError(t, sent[0].ctxErr, "final flush must not run on the cancelled loop context")

	stats := h.Stats()
	assert.Equal(t, int64(2), stats.Inserts)
	assert.Equal(t, int64(1), stats.Flushes)
	assert.Equal(t, int64(0), stats.Errors)
}

func TestHistory_SizeTriggeredFlush(t *testing.T) {
	sender := &fakeBatchSender{}
	h := NewHistory(HistoryConfig{BatchSize: 2, FlushInterval: time.Hour}, sender, nil)

	require.NoError(t, h.Start(context.Background()))
	defer h.Stop(context.Background())

	now := time.Now().UTC()
	h.Record(historySample("item-1", now))
	require.Empty(t, sender.batches(), "under-size batch must not flush")

	h.Record(historySample("item-1", now.Add(time.Minute)))

	sent := sender.batches()
	require.Len(t, sent, 1)
	assert.Equal(t, 2, sent[0].rows)
}
