// Package model defines shared data types used across the price monitor.
//
// Conventions:
//   - Prices: decimal.Decimal (never floats)
//   - Timestamps: time.Time in UTC
//   - IDs: string keys for tracked items, uuid.UUID for change events
package model
