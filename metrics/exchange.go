package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/plotstream/wire"
)

const (
	// recvAttempts bounds how many inbound messages are examined while
	// waiting for a metrics response.
	recvAttempts = 5

	// recvTimeout bounds one read while waiting.
	recvTimeout = 500 * time.Millisecond
)

// logger is the package logger, silent by default. The root package
// propagates its configured logger here via SetLogger.
var logger = slog.New(slog.DiscardHandler)

// SetLogger configures logging for the metrics package. Pass nil to
// silence it again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger = l
}

// Conn is the transport surface the exchange needs. *transport.Channel
// implements it.
type Conn interface {
	Connected() bool
	Send(payload []byte) error
	RecvLine(timeout time.Duration) ([]byte, error)
}

// ResizeSink receives resize requests that arrive interleaved with a
// metrics response. They are applied to the engine's pending-resize
// state exactly as if the normal inbound path had read them.
type ResizeSink interface {
	OfferResize(r *wire.Resize)
}

// Exchange answers text-metrics queries. Each producer session owns one
// Exchange: the request id counter and the result cache are instance
// state, so concurrent sessions cannot cross-contaminate.
//
// A query never blocks indefinitely and never fails: on timeout,
// malformed response, or a disconnected transport it falls back to local
// measurement.
type Exchange struct {
	conn Conn
	sink ResizeSink
	dpi  float64

	idCounter int
	cache     cache

	// measurer, when present, beats the family-fraction approximation
	// for local fallback.
	measurer *FontMeasurer
}

// NewExchange creates an exchange bound to one producer session.
// measurer may be nil.
func NewExchange(conn Conn, sink ResizeSink, dpi float64, measurer *FontMeasurer) *Exchange {
	if dpi <= 0 {
		dpi = 96
	}
	return &Exchange{conn: conn, sink: sink, dpi: dpi, measurer: measurer}
}

// sizePx converts a point size to device pixels.
func (e *Exchange) sizePx(f wire.Font) float64 {
	return f.Size * e.dpi / 72.0
}

// StringWidth returns the advance of text in device units.
func (e *Exchange) StringWidth(text string, f wire.Font) float64 {
	if !e.conn.Connected() {
		return e.localStringWidth(text, f)
	}

	h := queryHash(text, f)
	if entry, ok := e.cache.lookup(h); ok {
		return entry.v1
	}

	e.idCounter++
	req := &wire.MetricsRequest{
		ID:   e.idCounter,
		Kind: wire.MetricsStrWidth,
		Str:  text,
		Font: f,
	}
	if err := e.conn.Send(req.Encode()); err != nil {
		return e.localStringWidth(text, f)
	}

	resp := e.recvResponse()
	if resp == nil || resp.Width <= 0 {
		return e.localStringWidth(text, f)
	}
	e.cache.store(h, resp.Width, 0, 0)
	return resp.Width
}

// CharMetrics returns ascent, descent (both positive) and advance of a
// single character in device units.
func (e *Exchange) CharMetrics(r rune, f wire.Font) (ascent, descent, charWidth float64) {
	if r < 0 {
		r = -r
	}
	if !e.conn.Connected() {
		return e.localCharMetrics(r, f)
	}

	h := queryHash(fmt.Sprintf("c%d", r), f)
	if entry, ok := e.cache.lookup(h); ok {
		return entry.v1, entry.v2, entry.v3
	}

	e.idCounter++
	req := &wire.MetricsRequest{
		ID:   e.idCounter,
		Kind: wire.MetricsMetricInfo,
		Char: r,
		Font: f,
	}
	if err := e.conn.Send(req.Encode()); err != nil {
		return e.localCharMetrics(r, f)
	}

	resp := e.recvResponse()
	if resp == nil || (resp.Ascent <= 0 && resp.Descent <= 0 && resp.Width <= 0) {
		return e.localCharMetrics(r, f)
	}
	e.cache.store(h, resp.Ascent, resp.Descent, resp.Width)
	return resp.Ascent, resp.Descent, resp.Width
}

// recvResponse reads inbound messages until a metrics response arrives
// or the attempt budget is exhausted. Resize requests encountered while
// waiting are routed to the sink; each routed resize overwrites the
// previous pending one of its kind, so a burst during the wait collapses
// to the last dimensions. Malformed or unrelated messages are skipped.
func (e *Exchange) recvResponse() *wire.MetricsResponse {
	for attempt := 0; attempt < recvAttempts; attempt++ {
		line, err := e.conn.RecvLine(recvTimeout)
		if err != nil {
			return nil
		}

		msg, err := wire.ParseMessage(line)
		if err != nil {
			continue
		}
		switch m := msg.(type) {
		case *wire.MetricsResponse:
			return m
		case *wire.Resize:
			if e.sink != nil {
				e.sink.OfferResize(m)
			}
		}
	}
	logger.Debug("metrics response budget exhausted")
	return nil
}

// localStringWidth is the fallback chain for string widths.
func (e *Exchange) localStringWidth(text string, f wire.Font) float64 {
	sizePx := e.sizePx(f)
	if e.measurer != nil {
		if w, ok := e.measurer.StringWidth(text, sizePx); ok {
			return w
		}
	}
	return approxStringWidth(text, f, sizePx)
}

// localCharMetrics is the fallback chain for character metrics.
func (e *Exchange) localCharMetrics(r rune, f wire.Font) (ascent, descent, charWidth float64) {
	sizePx := e.sizePx(f)
	if e.measurer != nil {
		if a, d, w, ok := e.measurer.CharMetrics(r, sizePx); ok {
			return a, d, w
		}
	}
	return approxCharMetrics(r, f, sizePx)
}
