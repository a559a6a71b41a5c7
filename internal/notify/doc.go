// Package notify implements alert delivery.
//
// A Notifier makes exactly one delivery attempt per change event and reports
// the outcome; retry and backoff policy stays with the scheduler. Delivery
// failure never blocks state persistence.
package notify
