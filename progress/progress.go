// Package progress defines the reporting interface the Writer stage calls
// once per frame written, and ships two trivial implementations.
package progress

import "sync/atomic"

// Reporter is notified once for every frame the Writer stage emits. It is
// the sole observability surface the core pipeline exposes.
type Reporter interface {
	Increase()
}

// Counter is a Reporter backed by an atomic counter, safe to read from any
// goroutine while the Writer is still running.
type Counter struct {
	n int64
}

// Increase implements Reporter.
func (c *Counter) Increase() {
	atomic.AddInt64(&c.n, 1)
}

// Count returns the number of frames reported so far.
func (c *Counter) Count() int64 {
	return atomic.LoadInt64(&c.n)
}

type nopReporter struct{}

func (nopReporter) Increase() {}

// Nop returns a Reporter that discards every call, for callers with no use
// for progress reporting.
func Nop() Reporter { return nopReporter{} }
