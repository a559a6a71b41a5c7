package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/model"
)

func testState(itemID, price string, at time.Time) model.MonitorState {
	sample := model.PriceSample{
		ItemID:    itemID,
		Price:     decimal.RequireFromString(price),
		Currency:  "GBP",
		Retailer:  "Argos",
		FetchedAt: at,
	}
	return model.MonitorState{
		ItemID:      itemID,
		LastSample:  &sample,
		LowestPrice: sample.Price,
		LastCheck:   at,
		LastOutcome: model.OutcomeSuccess,
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "monitor-state.json")

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	// Unknown item loads as nil without error.
	st, err := s.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, st)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, testState("item-1", "99.99", at)))

	st, err = s.Load(ctx, "item-1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.LastSample.Price.Equal(decimal.RequireFromString("99.99")))
	assert.Equal(t, model.OutcomeSuccess, st.LastOutcome)
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "monitor-state.json")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, testState("item-1", "50", at)))
	require.NoError(t, s.Save(ctx, testState("item-2", "75", at)))
	s.Close()

	// Reopen: states must be restored from disk.
	s2, err := NewFileStore(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	st, err := s2.Load(ctx, "item-2")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.LastSample.Price.Equal(decimal.NewFromInt(75)))
}

func TestFileStore_FileIsLegibleJSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "monitor-state.json")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, testState("item-1", "50", at)))

	// The on-disk layout is a plain item-keyed JSON object, readable without
	// the running process.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]model.MonitorState
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "item-1")

	// No stray temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_CorruptFileIsSurfaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor-state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFileStore_SaveOverwritesAtomically(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "monitor-state.json")

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, testState("item-1", "100", base)))
	require.NoError(t, s.Save(ctx, testState("item-1", "90", base.Add(time.Hour))))

	st, err := s.Load(ctx, "item-1")
	require.NoError(t, err)
	assert.True(t, st.LastSample.Price.Equal(decimal.NewFromInt(90)))
	assert.True(t, st.LastCheck.Equal(base.Add(time.Hour)))
}
