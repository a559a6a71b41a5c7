// Package store implements the State Store.
//
// Two backends are provided: a file-backed JSON document (default, legible
// and recoverable without the running process) and Postgres. Both give atomic
// replace semantics for saves: a crash mid-save never leaves a state mixing
// fields from two different cycles.
package store
