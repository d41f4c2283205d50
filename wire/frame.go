package wire

// DeviceMeta is the device block of a frame: pixel dimensions, DPI, and
// page background.
type DeviceMeta struct {
	Width      float64
	Height     float64
	DPI        float64
	Background Color
}

// ProtocolVersion is the frame format version carried in every frame.
const ProtocolVersion = 1

// Mode selects full or delta frame encoding.
type Mode uint8

// Frame encoding modes.
const (
	// Full emits every operation currently in the page log.
	Full Mode = iota

	// Delta emits only operations appended since the encoder's boundary
	// for the page. With no boundary yet, Delta behaves as Full.
	Delta
)

// PageSource is the encoder's view of a page log. *page.Page implements
// it; tests may substitute fixtures.
type PageSource interface {
	// Device returns the page's device metadata.
	Device() DeviceMeta

	// OpsBytes returns the comma-separated encoded operations. Byte
	// offsets into the result must be stable across appends.
	OpsBytes() []byte

	// OpCount returns the number of recorded operations.
	OpCount() int
}

// FrameEncoder converts a page log into wire frames. It tracks a byte
// offset boundary into the page's accumulating ops buffer, so a delta
// frame is a slice of already-encoded bytes: operations sent earlier are
// neither re-walked nor re-encoded.
//
// The boundary belongs to the encoder, not the page; reset it with
// ResetBoundary whenever the page begins a new life.
type FrameEncoder struct {
	// SessionID identifies this producer instance in every frame.
	SessionID string

	boundary    int // byte offset into OpsBytes after the last emission
	hasBoundary bool
}

// ResetBoundary forgets the delta boundary. The next Delta encoding will
// behave as Full. Call when the underlying page is reset.
func (e *FrameEncoder) ResetBoundary() {
	e.boundary = 0
	e.hasBoundary = false
}

// FrameOptions adjusts the envelope of an encoded frame.
type FrameOptions struct {
	// NewPage marks the first frame of a page so the receiver starts a
	// new history entry rather than appending to the previous one.
	NewPage bool
}

// Encode serializes the page into one wire message (without the newline
// terminator; the transport adds framing). After encoding, the boundary
// advances to the current end of the page's ops buffer.
func (e *FrameEncoder) Encode(p PageSource, mode Mode, opts FrameOptions) []byte {
	ops := p.OpsBytes()

	incremental := mode == Delta && e.hasBoundary
	meta := p.Device()

	// A sensible initial capacity: envelope plus payload.
	dst := make([]byte, 0, len(ops)+160)

	dst = append(dst, `{"type":"frame","incremental":`...)
	if incremental {
		dst = append(dst, "true"...)
	} else {
		dst = append(dst, "false"...)
	}
	if opts.NewPage {
		dst = append(dst, `,"newPage":true`...)
	}
	dst = append(dst, `,"plot":{"version":`...)
	dst = AppendInt(dst, ProtocolVersion)
	dst = append(dst, `,"sessionId":`...)
	dst = appendString(dst, e.SessionID)
	dst = append(dst, `,"device":{"width":`...)
	dst = AppendNumber(dst, meta.Width)
	dst = append(dst, `,"height":`...)
	dst = AppendNumber(dst, meta.Height)
	dst = append(dst, `,"dpi":`...)
	dst = AppendNumber(dst, meta.DPI)
	dst = append(dst, `,"bg":`...)
	dst = meta.Background.appendJSON(dst)
	dst = append(dst, `},"ops":[`...)

	if incremental {
		tail := ops[min(e.boundary, len(ops)):]
		// Skip the comma that joined the new ops to the sent prefix.
		if len(tail) > 0 && tail[0] == ',' {
			tail = tail[1:]
		}
		dst = append(dst, tail...)
	} else {
		dst = append(dst, ops...)
	}
	dst = append(dst, `]}}`...)

	e.boundary = len(ops)
	e.hasBoundary = true
	return dst
}
