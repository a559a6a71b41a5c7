// Package monitor implements the polling scheduler.
//
// The scheduler drives the fetch -> evaluate -> notify cycle on a fixed
// interval, strictly sequentially: one item at a time, one cycle at a time,
// so every evaluation compares against state from a fully completed prior
// cycle. Per-cycle failures are logged and absorbed; the loop only stops on
// shutdown.
package monitor
