package store

import (
	"context"
	"errors"

	"pricewatch/internal/model"
)

// ErrUnavailable marks failures of the backing medium. Surfaced loudly by the
// scheduler: losing state causes spurious first-observation baselines (and so
// suppressed or duplicated alerts) after a restart.
var ErrUnavailable = errors.New("state store unavailable")

// Store persists per-item monitor state across poll cycles and restarts.
type Store interface {
	// Load returns the state for an item, or (nil, nil) when none is stored.
	Load(ctx context.Context, itemID string) (*model.MonitorState, error)

	// Save atomically replaces the state for state.ItemID.
	Save(ctx context.Context, state model.MonitorState) error

	// Close releases the backing medium.
	Close()
}
