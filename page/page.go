// Package page implements the per-page operation log and the bounded
// snapshot history of finished pages.
//
// A Page is append-only: operations are recorded in paint order and are
// never reordered or mutated. Alongside the structured log the page
// accumulates the encoded wire form of its operations, so the frame
// encoder can emit deltas by slicing bytes instead of re-encoding
// operations that were already sent.
package page

import (
	"github.com/gogpu/plotstream/wire"
)

// Page is one drawing surface's ordered op log plus device metadata.
// Dimensions are fixed for the page's lifetime; they change only when
// Begin rewrites the page for a replay at a new size.
type Page struct {
	meta wire.DeviceMeta
	ops  []wire.Op

	// buf holds the comma-separated encoded ops, built incrementally at
	// append time. Offsets into buf are stable because ops are never
	// removed within a page's lifetime.
	buf []byte
}

// New creates a page with the given device metadata.
func New(meta wire.DeviceMeta) *Page {
	p := &Page{}
	p.Begin(meta)
	return p
}

// Begin resets the log and records new device metadata. This is the only
// way a page's operations are discarded or its dimensions change.
func (p *Page) Begin(meta wire.DeviceMeta) {
	p.meta = meta
	p.ops = p.ops[:0]
	p.buf = p.buf[:0]
}

// Append records one operation and returns the new total count.
// The operation must not be mutated after it is appended.
func (p *Page) Append(op wire.Op) int {
	p.ops = append(p.ops, op)
	if len(p.buf) > 0 {
		p.buf = append(p.buf, ',')
	}
	p.buf = op.AppendJSON(p.buf)
	return len(p.ops)
}

// OpCount returns the number of recorded operations. It is monotonically
// non-decreasing within a page's lifetime.
func (p *Page) OpCount() int { return len(p.ops) }

// Ops returns the recorded operations in paint order. The returned slice
// is a read-only view; it is valid until the next Begin.
func (p *Page) Ops() []wire.Op { return p.ops }

// Device returns the page's device metadata.
func (p *Page) Device() wire.DeviceMeta { return p.meta }

// OpsBytes returns the comma-separated encoded operations. The slice is
// appended to by Append and reset by Begin; byte offsets taken from it
// remain valid between those events.
func (p *Page) OpsBytes() []byte { return p.buf }
