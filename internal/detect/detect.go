package detect

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricewatch/internal/model"
)

// Direction filters which way a price must move to alert.
type Direction string

const (
	DirectionAny      Direction = "any"
	DirectionDecrease Direction = "decrease_only"
	DirectionIncrease Direction = "increase_only"
)

// Policy configures significance. A zero threshold is unconstrained; when a
// threshold is set the delta must clear it. With both thresholds zero any
// nonzero move alerts.
type Policy struct {
	MinAbsoluteDelta decimal.Decimal
	MinPercentDelta  decimal.Decimal
	Direction        Direction

	// Target price band. A price inside the band fires a range event,
	// latched on LastAlertKind so the item does not re-alert every cycle
	// it sits in the band. Inactive while TargetMax is zero.
	TargetMin decimal.Decimal
	TargetMax decimal.Decimal

	// Kind of the item's most recent alert. Suppresses repeat range
	// events; any other alert kind re-arms the band.
	LastAlertKind string
}

// ForItem overlays per-item catalog settings onto the base policy.
func (p Policy) ForItem(item model.Item) Policy {
	out := p
	if item.DropPercent.IsPositive() {
		out.MinPercentDelta = item.DropPercent
	}
	out.TargetMin = item.TargetMin
	out.TargetMax = item.TargetMax
	return out
}

// hundred for percentage math.
var hundred = decimal.NewFromInt(100)

// Evaluate decides whether the move from previous to current is significant.
// Returns (nil, nil) when it is not. A nil previous establishes the baseline.
// The error return reports anomalies (zero previous price, mismatched items),
// which the caller logs; an anomaly never produces an event.
func Evaluate(previous *model.PriceSample, current model.PriceSample, policy Policy) (*model.ChangeEvent, error) {
	if previous == nil {
		return nil, nil
	}
	if previous.ItemID != current.ItemID {
		return nil, fmt.Errorf("cannot compare samples for %q and %q", previous.ItemID, current.ItemID)
	}
	if !previous.Price.IsPositive() {
		return nil, fmt.Errorf("previous price %s for %q is not positive, percent delta undefined",
			previous.Price, previous.ItemID)
	}

	delta := current.Price.Sub(previous.Price)
	deltaPct := delta.Div(previous.Price).Mul(hundred)

	kind := ""
	switch {
	case clearsThresholds(delta, deltaPct, policy):
		kind = model.AlertKindThreshold
	case triggersRange(current.Price, policy):
		kind = model.AlertKindRange
	default:
		return nil, nil
	}

	return &model.ChangeEvent{
		EventID:      uuid.New(),
		ItemID:       current.ItemID,
		Kind:         kind,
		Previous:     *previous,
		Current:      current,
		Delta:        delta,
		DeltaPercent: deltaPct,
	}, nil
}

func clearsThresholds(delta, deltaPct decimal.Decimal, p Policy) bool {
	if delta.IsZero() {
		return false
	}

	switch p.Direction {
	case DirectionDecrease:
		if !delta.IsNegative() {
			return false
		}
	case DirectionIncrease:
		if !delta.IsPositive() {
			return false
		}
	}

	if p.MinAbsoluteDelta.IsPositive() && delta.Abs().LessThan(p.MinAbsoluteDelta) {
		return false
	}
	if p.MinPercentDelta.IsPositive() && deltaPct.Abs().LessThan(p.MinPercentDelta) {
		return false
	}
	return true
}

// triggersRange reports whether the price sits in the target band with the
// band armed. The last alert kind is the latch: once a range alert fires it
// stays suppressed until an alert of another kind re-arms it.
func triggersRange(current decimal.Decimal, p Policy) bool {
	if !p.TargetMax.IsPositive() {
		return false
	}
	if p.LastAlertKind == model.AlertKindRange {
		return false
	}
	return current.GreaterThanOrEqual(p.TargetMin) && current.LessThanOrEqual(p.TargetMax)
}
