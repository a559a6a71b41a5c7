package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Catalog Types
// -----------------------------------------------------------------------------

// Item is a tracked product whose price is being monitored.
type Item struct {
	ID             string          // Primary key (normalized name, e.g. "sony-wh-1000xm5")
	Name           string          // Display name from the catalog sheet
	URL            string          // Optional direct product URL
	SearchQuery    string          // Optional search query override
	Specifications string          // Extra terms appended to the search query
	TargetMin      decimal.Decimal // Lower bound of the target price band
	TargetMax      decimal.Decimal // Upper bound of the target price band
	DropPercent    decimal.Decimal // Alert threshold for drops from the lowest seen price
}

// FullQuery returns the search query sent to the price source.
func (it Item) FullQuery() string {
	q := it.SearchQuery
	if q == "" {
		q = it.Name
	}
	if it.Specifications != "" {
		q += " " + it.Specifications
	}
	return q
}

// -----------------------------------------------------------------------------
// Sample Types
// -----------------------------------------------------------------------------

// PriceSample is a single observed price for an item. Immutable once created.
type PriceSample struct {
	ItemID    string          `json:"item_id"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Retailer  string          `json:"retailer"`
	Link      string          `json:"link,omitempty"`
	Title     string          `json:"title,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// CheckOutcome records how a poll cycle ended for an item.
type CheckOutcome string

const (
	OutcomeNone    CheckOutcome = ""
	OutcomeSuccess CheckOutcome = "success"
	OutcomeFailure CheckOutcome = "failure"
)

// MonitorState is the persisted per-item state, mutated once per poll cycle
// by the scheduler and owned exclusively by it.
type MonitorState struct {
	ItemID              string          `json:"item_id"`
	LastSample          *PriceSample    `json:"last_sample,omitempty"`
	LowestPrice         decimal.Decimal `json:"lowest_price"`
	LastAlertKind       string          `json:"last_alert_kind,omitempty"`
	LastCheck           time.Time       `json:"last_check"`
	LastOutcome         CheckOutcome    `json:"last_outcome"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
}

// ApplySample records a successful fetch. The last known sample is only
// replaced by a sample with a strictly later timestamp; stale samples are
// rejected so restarts or clock skew can never roll state backwards.
func (s *MonitorState) ApplySample(sample PriceSample) error {
	if sample.ItemID != s.ItemID {
		return fmt.Errorf("sample for item %q applied to state for item %q", sample.ItemID, s.ItemID)
	}
	if s.LastSample != nil && !sample.FetchedAt.After(s.LastSample.FetchedAt) {
		return fmt.Errorf("sample at %s is not later than last sample at %s",
			sample.FetchedAt.Format(time.RFC3339), s.LastSample.FetchedAt.Format(time.RFC3339))
	}

	s.LastSample = &sample
	if s.LowestPrice.IsZero() || sample.Price.LessThan(s.LowestPrice) {
		s.LowestPrice = sample.Price
	}
	s.LastCheck = sample.FetchedAt
	s.LastOutcome = OutcomeSuccess
	s.ConsecutiveFailures = 0
	return nil
}

// RecordFailure records a failed fetch. The last known sample is untouched.
func (s *MonitorState) RecordFailure(at time.Time) {
	s.LastCheck = at
	s.LastOutcome = OutcomeFailure
	s.ConsecutiveFailures++
}

// -----------------------------------------------------------------------------
// Event Types
// -----------------------------------------------------------------------------

// Alert kinds. Range events are latched on MonitorState.LastAlertKind so a
// price sitting in the target band does not alert every cycle; an alert of
// another kind re-arms the band. Threshold events are never latched, every
// qualifying move is a new change.
const (
	AlertKindThreshold = "threshold"
	AlertKindRange     = "range"
)

// ChangeEvent is produced when a price change clears the configured policy.
// Consumed once by the notifier, then discarded.
type ChangeEvent struct {
	EventID      uuid.UUID
	ItemID       string
	Kind         string // AlertKindThreshold or AlertKindRange
	Previous     PriceSample
	Current      PriceSample
	Delta        decimal.Decimal // Current.Price - Previous.Price
	DeltaPercent decimal.Decimal // Delta / Previous.Price * 100
}

// -----------------------------------------------------------------------------
// Health Types
// -----------------------------------------------------------------------------

// HealthSnapshot summarizes the most recently completed poll cycle. Rebuilt
// by the scheduler after every cycle and read-only to the status server.
type HealthSnapshot struct {
	StartedAt   time.Time        // Process start time
	LastCheck   time.Time        // End of the last completed cycle
	LastOutcome CheckOutcome     // Outcome of the last completed cycle
	LastPrice   *decimal.Decimal // Most recent successfully fetched price, nil before first success
	LastError   string           // Last per-cycle error, empty when the cycle was clean

	Cycles      int64 // Completed poll cycles
	Items       int   // Items in the catalog at the last cycle
	AlertsSent  int64 // Change events delivered so far
	MaxFailures int   // Highest consecutive-failure count across items
	Degraded    bool  // True once MaxFailures exceeds the configured threshold
}

// Uptime reports how long the process has been running as of now.
func (h HealthSnapshot) Uptime(now time.Time) time.Duration {
	if h.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(h.StartedAt)
}
