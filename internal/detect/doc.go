// Package detect implements the Change Detector.
//
// Evaluate compares a new price sample against the previous one under a
// Policy and decides whether the change is significant. The first observation
// of an item establishes the baseline and never produces an event.
package detect
