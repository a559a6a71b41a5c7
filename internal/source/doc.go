// Package source implements the Price Source Adapter.
//
// A Source fetches the current best price for a tracked item from an external
// provider. Adapters never retry internally; retry policy belongs to the
// scheduler. Failures are classified as SourceUnavailable (upstream not
// reachable or erroring) or ParseError (response received but no usable price).
package source
