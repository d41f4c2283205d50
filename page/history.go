package page

import (
	"errors"

	"github.com/gogpu/plotstream/wire"
)

// ErrOutOfRange is returned by History.Get for an index at or beyond the
// current snapshot count (including indices that were valid before an
// eviction shifted them away).
var ErrOutOfRange = errors.New("page: history index out of range")

// DefaultHistoryCapacity bounds the snapshot history when the device is
// not configured otherwise.
const DefaultHistoryCapacity = 64

// Snapshot is an immutable complete recording of a finished page:
// its operation log and its dimensions at capture time. Snapshots are
// owned by the History once appended; the page that produced one remains
// independently owned by the device.
type Snapshot struct {
	meta wire.DeviceMeta
	ops  []wire.Op
}

// Capture returns a snapshot of the page's current log and dimensions.
// The snapshot owns its own op slice, so later appends to the page or a
// page reset do not affect it. The ops themselves are immutable by the
// Page append contract, so they are shared, not cloned.
func Capture(p *Page) *Snapshot {
	ops := make([]wire.Op, p.OpCount())
	copy(ops, p.Ops())
	return &Snapshot{meta: p.Device(), ops: ops}
}

// Ops returns the captured operations in paint order.
func (s *Snapshot) Ops() []wire.Op { return s.ops }

// Device returns the device metadata at capture time.
func (s *Snapshot) Device() wire.DeviceMeta { return s.meta }

// OpCount returns the number of captured operations.
func (s *Snapshot) OpCount() int { return len(s.ops) }

// History is the ordered, bounded sequence of snapshots, oldest first.
//
// When full, appending evicts index 0 and shifts every other entry down
// by one. The remote peer applies the identical rule to its own record,
// so a historical index it sends always resolves to the same logical
// page here.
type History struct {
	capacity int
	snaps    []*Snapshot
}

// NewHistory creates a history bounded to the given capacity.
// Non-positive capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Append adds a snapshot, evicting the oldest entry if the history is at
// capacity.
func (h *History) Append(s *Snapshot) {
	if len(h.snaps) >= h.capacity {
		n := copy(h.snaps, h.snaps[1:])
		h.snaps = h.snaps[:n]
	}
	h.snaps = append(h.snaps, s)
}

// Get returns the snapshot at index (0 = oldest retained).
func (h *History) Get(index int) (*Snapshot, error) {
	if index < 0 || index >= len(h.snaps) {
		return nil, ErrOutOfRange
	}
	return h.snaps[index], nil
}

// Len returns the number of retained snapshots.
func (h *History) Len() int { return len(h.snaps) }

// Capacity returns the configured bound.
func (h *History) Capacity() int { return h.capacity }
