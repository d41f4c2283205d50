package plotstream

import (
	"errors"

	"github.com/gogpu/plotstream/page"
	"github.com/gogpu/plotstream/wire"
)

// State describes where the device stands in the resize lifecycle.
type State uint8

const (
	// StateIdle means no resize is pending.
	StateIdle State = iota
	// StateResizePendingCurrent means new dimensions for the live page
	// are waiting to be applied at the next safe point.
	StateResizePendingCurrent
	// StateResizePendingHistorical means a resize of a retired page is
	// buffered until PollResize runs at an idle point.
	StateResizePendingHistorical
	// StateReplaying means recorded operations are being re-executed;
	// flushing and nested replays are suppressed.
	StateReplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResizePendingCurrent:
		return "resize-pending-current"
	case StateResizePendingHistorical:
		return "resize-pending-historical"
	case StateReplaying:
		return "replaying"
	default:
		return "unknown"
	}
}

// bufferedResize is the single-slot holding area for a historical
// resize request. A newer request overwrites an unserved one.
type bufferedResize struct {
	width, height float64
	index         int
}

// State returns the device's position in the resize lifecycle. A
// historical request shadows a pending current-page one, matching the
// order PollResize serves them in reverse: current first, then
// historical.
func (d *Device) State() State {
	switch {
	case d.replaying:
		return StateReplaying
	case d.buffered != nil:
		return StateResizePendingHistorical
	case d.pendingW > 0:
		return StateResizePendingCurrent
	default:
		return StateIdle
	}
}

// OfferResize records an inbound resize request without acting on it.
// Current-page requests wait for the next safe point; historical
// requests go to the single-slot buffer, last write wins. Called by the
// message routing paths, including the metrics exchange when a resize
// arrives interleaved with a metrics response.
func (d *Device) OfferResize(r *wire.Resize) {
	if r.Historical() {
		d.buffered = &bufferedResize{width: r.Width, height: r.Height, index: *r.PlotIndex}
	} else {
		d.pendingW, d.pendingH = r.Width, r.Height
	}
}

// checkIncoming drains at most one inbound message at a safe point.
// While a historical resize is buffered no message is read, so requests
// are served in arrival order.
func (d *Device) checkIncoming() {
	if d.buffered != nil {
		return
	}
	if !d.ch.HasPending() {
		return
	}
	line, err := d.ch.RecvLine(0)
	if err != nil {
		return
	}
	d.routeMessage(line)
}

func (d *Device) routeMessage(line []byte) {
	msg, err := wire.ParseMessage(line)
	if err != nil {
		Logger().Debug("skipping inbound message", "error", err)
		return
	}
	switch m := msg.(type) {
	case *wire.Resize:
		d.OfferResize(m)
	case *wire.ServerInfo:
		d.serverInfo = m
	default:
		// A metrics response outside an exchange is stale; drop it.
	}
}

// applyPendingCurrent adopts pending live-page dimensions.
func (d *Device) applyPendingCurrent() {
	if d.pendingW > 0 && d.pendingH > 0 {
		d.widthPx, d.heightPx = d.pendingW, d.pendingH
		d.pendingW, d.pendingH = 0, 0
	}
}

// PollResize is the device's idle hook: the host calls it whenever no
// drawing is in progress. It consumes at most one inbound message,
// then serves at most one pending resize, current-page requests first.
// It reports whether a resize was applied and a replay performed.
func (d *Device) PollResize() bool {
	if d.closed || d.replaying || d.drawing {
		return false
	}
	if d.buffered == nil && d.ch.HasPending() {
		if line, err := d.ch.RecvLine(0); err == nil {
			d.routeMessage(line)
		}
	}
	if d.pendingW > 0 {
		return d.replayCurrent()
	}
	if d.buffered != nil {
		return d.replayHistorical()
	}
	return false
}

// replayCurrent resizes the live page and re-executes its contents at
// the new dimensions. The replay goes through the host's replayer when
// one was configured, so layout recomputes for the new size; otherwise
// the recorded operations are re-appended as-is. A page whose log ends
// up empty emits no frame, leaving the receiver's display unchanged
// until real content arrives.
func (d *Device) replayCurrent() bool {
	d.applyPendingCurrent()

	// Begin reuses the log's backing array, so take a copy first.
	saved := append([]wire.Op(nil), d.page.Ops()...)
	bg := d.page.Device().Background

	d.replaying = true
	d.page.Begin(d.meta(bg))
	d.enc.ResetBoundary()
	d.lastFlushed = 0
	if d.replayer != nil {
		d.replayer(d)
	} else {
		for _, op := range saved {
			d.page.Append(op)
		}
	}
	d.replaying = false

	if d.page.OpCount() > 0 {
		d.flush(false)
		d.lastFlushed = d.page.OpCount()
		d.lastSnapshot = page.Capture(d.page)
	}
	return true
}

// replayHistorical replays a retired page at the requested dimensions.
// The snapshot's operations are re-executed into a scratch page with
// its own frame encoder, so the live page and its delta boundary are
// untouched. Exactly one complete frame is emitted; the receiver
// replaces its copy of that history entry in place.
func (d *Device) replayHistorical() bool {
	req := *d.buffered
	d.buffered = nil

	snap, err := d.history.Get(req.index)
	if err != nil {
		if errors.Is(err, page.ErrOutOfRange) {
			Logger().Debug("historical resize dropped", "index", req.index)
		}
		return false
	}

	d.replaying = true
	scratch := page.New(wire.DeviceMeta{
		Width:      req.width,
		Height:     req.height,
		DPI:        snap.Device().DPI,
		Background: snap.Device().Background,
	})
	for _, op := range snap.Ops() {
		scratch.Append(op)
	}
	d.replaying = false

	enc := wire.FrameEncoder{SessionID: d.sessionID}
	frame := enc.Encode(scratch, wire.Full, wire.FrameOptions{})
	if err := d.ch.Send(frame); err != nil {
		Logger().Debug("historical frame dropped", "index", req.index)
	}
	return true
}
