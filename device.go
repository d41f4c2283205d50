package plotstream

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/plotstream/metrics"
	"github.com/gogpu/plotstream/page"
	"github.com/gogpu/plotstream/raster"
	"github.com/gogpu/plotstream/transport"
	"github.com/gogpu/plotstream/wire"
)

// Device is the producer engine: it records the host framework's drawing
// calls into pages, streams them to the renderer as full and delta
// frames, retains finished pages for historical resizing, and answers
// text-metrics queries.
//
// Device is single-threaded by design: every method runs on the thread
// that executes the host's drawing callbacks, and no method blocks
// without a timeout. Device implements io.Closer.
//
// A Device keeps working without a renderer. If the initial connection
// fails, a single warning is logged; pages are still recorded, metrics
// are answered locally, and output resumes after a successful Reconnect.
type Device struct {
	ch       *transport.Channel
	enc      wire.FrameEncoder
	page     *page.Page
	history  *page.History
	exchange *metrics.Exchange

	sessionID  string
	widthPx    float64
	heightPx   float64
	dpi        float64
	background wire.Color
	replayer   Replayer

	pageCount   int
	drawing     bool
	holdLevel   int
	lastFlushed int // op count at the last flush

	// freshPage marks a page the receiver has not seen: its first
	// complete frame carries newPage so the receiver starts a new
	// history entry.
	freshPage bool

	// lastSnapshot is the capture taken at the page's most recent
	// complete flush. It is committed into history when the next page
	// begins; the host clears its own display state before announcing
	// a new page, so capturing any later would record nothing.
	lastSnapshot *page.Snapshot

	// replaying guards against re-entry: while a replay re-executes
	// recorded operations, flushing, snapshot capture, and nested
	// replays are suppressed.
	replaying bool

	// Pending current-page resize; applied at the next safe point.
	pendingW, pendingH float64

	// Single-slot holding area for a historical resize, applied only
	// from PollResize when the producer is idle.
	buffered *bufferedResize

	serverInfo *wire.ServerInfo
	closed     bool
}

var _ io.Closer = (*Device)(nil)

// handshake read parameters: how long to wait for the peer's welcome.
const (
	handshakeAttempts = 3
	handshakeTimeout  = 500 * time.Millisecond
)

// New creates a device with the given page dimensions in pixels and
// connects to the renderer.
//
// A connection failure is not an error: the device records pages and
// serves metrics locally until Reconnect succeeds, and a single warning
// is logged. New fails only for invalid configuration (unusable font
// data).
func New(width, height float64, opts ...Option) (*Device, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if width <= 0 {
		width = 7 * options.dpi
	}
	if height <= 0 {
		height = 7 * options.dpi
	}

	sessionID := options.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var measurer *metrics.FontMeasurer
	if len(options.fontData) > 0 {
		m, err := metrics.NewFontMeasurer(options.fontData)
		if err != nil {
			return nil, err
		}
		measurer = m
	}

	ch, err := transport.Dial(options.endpoint)
	if err != nil {
		Logger().Warn("plotstream: could not connect to renderer; "+
			"pages will be recorded but not displayed until a connection is established",
			"error", err)
	}

	d := &Device{
		ch:         ch,
		enc:        wire.FrameEncoder{SessionID: sessionID},
		history:    page.NewHistory(options.historyCapacity),
		sessionID:  sessionID,
		widthPx:    width,
		heightPx:   height,
		dpi:        options.dpi,
		background: options.background,
		replayer:   options.replayer,
	}
	d.page = page.New(d.meta(d.background))
	d.exchange = metrics.NewExchange(ch, d, options.dpi, measurer)

	if ch.Connected() {
		d.handshake()
	}
	return d, nil
}

// meta builds device metadata at the current dimensions.
func (d *Device) meta(bg wire.Color) wire.DeviceMeta {
	return wire.DeviceMeta{
		Width:      d.widthPx,
		Height:     d.heightPx,
		DPI:        d.dpi,
		Background: bg,
	}
}

// handshake elicits and records the peer's welcome message. Resize
// requests that arrive first are routed to the pending-resize state.
func (d *Device) handshake() {
	if err := d.ch.Send(wire.PingMessage); err != nil {
		return
	}
	for attempt := 0; attempt < handshakeAttempts; attempt++ {
		line, err := d.ch.RecvLine(handshakeTimeout)
		if err != nil {
			return
		}
		msg, perr := wire.ParseMessage(line)
		if perr != nil {
			continue
		}
		switch m := msg.(type) {
		case *wire.ServerInfo:
			d.serverInfo = m
			Logger().Debug("renderer welcome",
				"serverName", m.ServerName,
				"protocolVersion", m.ProtocolVersion,
				"transport", m.Transport)
			return
		case *wire.Resize:
			d.OfferResize(m)
		}
	}
}

// SessionID returns the identifier carried in every frame.
func (d *Device) SessionID() string { return d.sessionID }

// Connected reports whether the transport currently has a live
// connection.
func (d *Device) Connected() bool { return d.ch.Connected() }

// ServerInfo returns the peer's welcome message, or nil if none was
// received.
func (d *Device) ServerInfo() *wire.ServerInfo { return d.serverInfo }

// Size returns the current page dimensions in pixels.
func (d *Device) Size() (width, height float64) { return d.widthPx, d.heightPx }

// History returns the snapshot history of finished pages.
func (d *Device) History() *page.History { return d.history }

// OpCount returns the number of operations recorded on the current page.
func (d *Device) OpCount() int { return d.page.OpCount() }

// NewPage retires the current page and starts a new one with the given
// background. The retired page's unsent tail is flushed, its snapshot
// (taken at its last complete flush) is committed into history, and a
// pending current-page resize is applied before the new page is created.
func (d *Device) NewPage(bg wire.Color) {
	if d.closed {
		return
	}
	if d.replaying {
		// Replay re-executes the page from the top: rebuild the log at
		// the current dimensions, emit nothing.
		d.page.Begin(d.meta(bg))
		d.enc.ResetBoundary()
		d.lastFlushed = 0
		return
	}

	if d.pageCount > 0 && d.page.OpCount() > d.lastFlushed {
		d.flush(false)
	}
	if d.pageCount > 0 && d.lastSnapshot != nil {
		d.history.Append(d.lastSnapshot)
		d.lastSnapshot = nil
	}

	d.checkIncoming()
	d.applyPendingCurrent()

	d.page.Begin(d.meta(bg))
	d.enc.ResetBoundary()
	d.pageCount++
	d.lastFlushed = 0
	d.freshPage = true
}

// BeginDraw marks the start of a draw batch. While a batch is open the
// device does not poll for resizes.
func (d *Device) BeginDraw() {
	if d.replaying {
		return
	}
	d.drawing = true
}

// EndDraw marks the end of a draw batch. Unless the display is held
// (see HoldFlush), the page's unsent tail is flushed: the first flush of
// a page is a complete frame, later flushes are deltas. A complete flush
// also captures the page snapshot used for historical resizing.
func (d *Device) EndDraw() {
	if d.replaying {
		return
	}
	d.drawing = false
	if d.holdLevel > 0 || d.page.OpCount() <= d.lastFlushed {
		return
	}
	incremental := d.lastFlushed > 0
	d.flush(incremental)
	d.lastFlushed = d.page.OpCount()
	if !incremental {
		d.lastSnapshot = page.Capture(d.page)
	}
}

// HoldFlush adjusts the display hold level by delta (positive to hold,
// negative to release) and returns the previous level. While held,
// EndDraw does not flush; the release back to level zero emits one
// complete frame for everything accumulated and captures the page
// snapshot.
func (d *Device) HoldFlush(delta int) int {
	if d.replaying {
		return d.holdLevel
	}
	old := d.holdLevel
	level := old + delta
	if level < 0 {
		level = 0
	}
	d.holdLevel = level

	if old > 0 && level == 0 && d.page.OpCount() > d.lastFlushed {
		d.flush(false)
		d.lastFlushed = d.page.OpCount()
		d.lastSnapshot = page.Capture(d.page)
	}
	return old
}

// flush serializes the page's log (full, or the tail past the encoder
// boundary) and hands it to the transport. Suppressed during replay.
// The first complete frame of a fresh page announces newPage. A send
// while disconnected is dropped silently; the encoder boundary still
// advances, matching the protocol's drop-until-reconnected behavior.
func (d *Device) flush(incremental bool) {
	if d.replaying {
		return
	}
	mode := wire.Full
	if incremental {
		mode = wire.Delta
	}
	newPage := !incremental && d.freshPage
	frame := d.enc.Encode(d.page, mode, wire.FrameOptions{NewPage: newPage})
	if err := d.ch.Send(frame); err != nil {
		Logger().Debug("frame dropped", "bytes", len(frame), "incremental", incremental)
	}
	if newPage {
		d.freshPage = false
	}
}

// Close flushes the page's unsent tail, notifies the peer, and shuts the
// transport down. The device ignores all further drawing calls.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	if d.page.OpCount() > d.lastFlushed {
		d.flush(false)
		d.lastFlushed = d.page.OpCount()
	}
	_ = d.ch.Send(wire.CloseMessage)
	d.closed = true
	return d.ch.Close()
}

// Reconnect closes the current connection, re-runs endpoint discovery,
// and retries dialing a bounded number of times. On success the welcome
// exchange is repeated.
func (d *Device) Reconnect() error {
	if err := d.ch.Reconnect(); err != nil {
		return err
	}
	d.handshake()
	return nil
}

// StringWidth returns the advance of text in device units, asking the
// renderer when connected and falling back to local measurement
// otherwise. It never blocks indefinitely and never fails.
func (d *Device) StringWidth(text string, f wire.Font) float64 {
	return d.exchange.StringWidth(text, f)
}

// CharMetrics returns ascent, descent (both positive), and advance for a
// single character in device units, with the same fallback behavior as
// StringWidth.
func (d *Device) CharMetrics(r rune, f wire.Font) (ascent, descent, width float64) {
	return d.exchange.CharMetrics(r, f)
}

// --- Drawing operations ---
//
// Each call appends one operation to the current page. Operations are
// recorded in paint order and are immutable once appended; coordinate
// slices are copied so the host may reuse its buffers.

// Line records a stroked segment.
func (d *Device) Line(x1, y1, x2, y2 float64, s wire.Style) {
	if d.closed {
		return
	}
	d.page.Append(wire.Line{X1: x1, Y1: y1, X2: x2, Y2: y2, Style: s})
}

// Polyline records an open polyline.
func (d *Device) Polyline(x, y []float64, s wire.Style) {
	if d.closed {
		return
	}
	d.page.Append(wire.Polyline{X: copyFloats(x), Y: copyFloats(y), Style: s})
}

// Polygon records a closed polygon.
func (d *Device) Polygon(x, y []float64, s wire.Style) {
	if d.closed {
		return
	}
	d.page.Append(wire.Polygon{X: copyFloats(x), Y: copyFloats(y), Style: s})
}

// Rect records a rectangle between two corners.
func (d *Device) Rect(x0, y0, x1, y1 float64, s wire.Style) {
	if d.closed {
		return
	}
	d.page.Append(wire.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1, Style: s})
}

// Circle records a circle.
func (d *Device) Circle(x, y, r float64, s wire.Style) {
	if d.closed {
		return
	}
	d.page.Append(wire.Circle{X: x, Y: y, R: r, Style: s})
}

// Text records a text placement. rot is in degrees counter-clockwise,
// hadj the horizontal adjustment in [0, 1].
func (d *Device) Text(x, y float64, str string, rot, hadj float64, s wire.Style) {
	if d.closed {
		return
	}
	d.page.Append(wire.Text{X: x, Y: y, Str: str, Rot: rot, HAdj: hadj, Style: s})
}

// DrawPath records a multi-subpath filled shape. evenOdd selects the
// even-odd fill rule; the default rule is nonzero winding.
func (d *Device) DrawPath(subpaths [][]wire.Point, evenOdd bool, s wire.Style) {
	if d.closed {
		return
	}
	copied := make([][]wire.Point, len(subpaths))
	for i, sp := range subpaths {
		copied[i] = append([]wire.Point(nil), sp...)
	}
	d.page.Append(wire.Path{EvenOdd: evenOdd, Subpaths: copied, Style: s})
}

// DrawRaster records an image placement. pixels is an RGBA buffer
// (4 bytes per pixel, row-major) of pw×ph pixels, drawn at (x, y) with
// size w×h in device units. If the image cannot be encoded the
// operation is abandoned: no op is recorded and no frame is produced
// for it.
func (d *Device) DrawRaster(pixels []byte, pw, ph int, x, y, w, h, rot float64, interpolate bool) {
	if d.closed {
		return
	}
	uri, err := raster.Encode(pixels, pw, ph)
	if err != nil {
		Logger().Debug("raster abandoned", "error", err)
		return
	}
	d.page.Append(wire.Raster{
		X: x, Y: y, W: w, H: h,
		Rot:         rot,
		Interpolate: interpolate,
		PixelWidth:  pw,
		PixelHeight: ph,
		Data:        uri,
	})
}

// ClipRect records a clip-rectangle change for subsequent operations.
func (d *Device) ClipRect(x0, y0, x1, y1 float64) {
	if d.closed {
		return
	}
	d.page.Append(wire.Clip{X0: x0, Y0: y0, X1: x1, Y1: y1})
}

func copyFloats(v []float64) []float64 {
	return append([]float64(nil), v...)
}
