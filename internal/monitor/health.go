package monitor

import (
	"sync/atomic"
	"time"

	"pricewatch/internal/model"
)

// SnapshotCell is a single-writer, many-reader cell holding the latest
// HealthSnapshot. The scheduler swaps in a fresh snapshot after every cycle;
// readers never observe a partially written value.
type SnapshotCell struct {
	p atomic.Pointer[model.HealthSnapshot]
}

// NewSnapshotCell seeds the cell with an initial pre-first-cycle snapshot.
func NewSnapshotCell(startedAt time.Time) *SnapshotCell {
	c := &SnapshotCell{}
	c.Store(model.HealthSnapshot{StartedAt: startedAt, LastOutcome: model.OutcomeNone})
	return c
}

// Load returns the most recently stored snapshot by value.
func (c *SnapshotCell) Load() model.HealthSnapshot {
	return *c.p.Load()
}

// Store atomically replaces the snapshot.
func (c *SnapshotCell) Store(s model.HealthSnapshot) {
	c.p.Store(&s)
}
