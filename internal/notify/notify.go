package notify

import (
	"context"
	"fmt"
	"log/slog"

	"pricewatch/internal/model"
)

// Notifier delivers change events to an external channel.
type Notifier interface {
	Notify(ctx context.Context, event model.ChangeEvent) error
}

// NotifierFunc is a function adapter for Notifier.
type NotifierFunc func(ctx context.Context, event model.ChangeEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event model.ChangeEvent) error {
	return f(ctx, event)
}

// ErrorReporter is implemented by notifiers that can also push operational
// errors (catalog unreachable, repeated fetch failures) to their channel.
type ErrorReporter interface {
	ReportError(ctx context.Context, message string) error
}

// DeliveryError wraps a failed delivery attempt.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// LogNotifier emits alerts to the structured log. Used when no webhook is
// configured; delivery always succeeds.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event model.ChangeEvent) error {
	n.logger.Info("price alert",
		"event_id", event.EventID,
		"item", event.ItemID,
		"kind", event.Kind,
		"previous", event.Previous.Price,
		"current", event.Current.Price,
		"delta", event.Delta,
		"delta_percent", event.DeltaPercent.Round(1),
		"retailer", event.Current.Retailer,
	)
	return nil
}

func (n *LogNotifier) ReportError(_ context.Context, message string) error {
	n.logger.Error("monitor error report", "message", message)
	return nil
}
