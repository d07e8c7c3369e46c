// Package broadcast implements the latest-value cell and the gRPC
// server-streaming surface that fans the merged Summary out to any number
// of subscribed clients.
//
// Cell is a single-producer, multi-consumer primitive: the merger publishes
// a new Summary whenever it changes, and each subscriber's Receiver yields
// the current value on its first read and the newest value thereafter —
// intermediate values may be coalesced, but a receiver always converges to
// the latest published value. Publish never blocks on subscribers, replacing
// per-client buffered delivery with latest-value, skip-ahead semantics.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"bookmerge/pkg/types"
)

// Cell holds the most recently published Summary.
type Cell struct {
	mu      sync.Mutex
	value   types.Summary
	changed chan struct{} // closed and replaced on every Publish

	receivers int32 // atomic
}

// NewCell creates a cell initialized to an empty default Summary.
func NewCell() *Cell {
	return &Cell{changed: make(chan struct{})}
}

// Publish stores v as the latest value and wakes any receiver waiting on a
// change. Never blocks, regardless of how many (or how few) receivers exist.
func (c *Cell) Publish(v types.Summary) {
	c.mu.Lock()
	c.value = v
	old := c.changed
	c.changed = make(chan struct{})
	c.mu.Unlock()

	close(old)
}

// ActiveReceivers reports how many receivers are currently subscribed.
func (c *Cell) ActiveReceivers() int {
	return int(atomic.LoadInt32(&c.receivers))
}

// Subscribe returns a new Receiver. Callers must call Close when done.
func (c *Cell) Subscribe() *Receiver {
	atomic.AddInt32(&c.receivers, 1)
	return &Receiver{cell: c}
}

// Receiver observes the Cell's published values.
type Receiver struct {
	cell    *Cell
	seen    bool
	changed chan struct{} // the cell's change channel when the last value was read
	closed  int32
}

// Next blocks until a value is available: on the first call it returns
// immediately with the cell's current value; on every subsequent call it
// blocks until the value has changed since the last value it returned
// (returning at once if it already has) and returns the newest one,
// coalescing any values published in between. Returns ok=false if ctx is
// done first.
func (r *Receiver) Next(ctx context.Context) (types.Summary, bool) {
	r.cell.mu.Lock()
	v := r.cell.value
	ch := r.cell.changed
	first := !r.seen
	r.seen = true
	r.cell.mu.Unlock()

	if first {
		r.changed = ch
		return v, true
	}

	select {
	case <-r.changed:
		r.cell.mu.Lock()
		v = r.cell.value
		r.changed = r.cell.changed
		r.cell.mu.Unlock()
		return v, true
	case <-ctx.Done():
		return types.Summary{}, false
	}
}

// Close releases the receiver's slot. Safe to call once; further calls are
// no-ops.
func (r *Receiver) Close() {
	if atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		atomic.AddInt32(&r.cell.receivers, -1)
	}
}
