// Package testutil provides deterministic random annotation values for tests
// and benchmarks.
package testutil
