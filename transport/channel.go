package transport

import (
	"bytes"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff"
)

// Channel I/O errors.
var (
	// ErrTimeout is returned by RecvLine when no complete line arrived
	// within the timeout. The channel stays connected.
	ErrTimeout = errors.New("transport: receive timeout")

	// ErrDisconnected is returned when the channel has no live
	// connection. Callers degrade to local fallbacks; the channel may
	// come back via Reconnect.
	ErrDisconnected = errors.New("transport: disconnected")
)

const (
	// DefaultMaxLine bounds a single inbound message. A longer line is
	// truncated to this size and the remainder is discarded; the caller
	// gets no signal. Known limitation, kept from the protocol's
	// reference implementation.
	DefaultMaxLine = 64 * 1024

	// readChunk is the size of one read system call. A burst of short
	// messages arrives in one call and is buffered across RecvLine
	// invocations.
	readChunk = 4096

	// dialTimeout bounds a single connection attempt.
	dialTimeout = time.Second

	// reconnectAttempts and reconnectDelay bound Reconnect. The policy
	// is deliberately small: the engine runs inside synchronous drawing
	// callbacks and must not stall the host.
	reconnectAttempts = 3
	reconnectDelay    = 100 * time.Millisecond

	// pollGrace is the read deadline used for zero-timeout polls. A
	// deadline at or before time.Now() makes the runtime fail the read
	// with ErrDeadlineExceeded before looking at the socket, so bytes
	// already readable would never be seen; the deadline must sit
	// slightly in the future for the poll to attempt a read at all.
	pollGrace = time.Millisecond
)

// logger is the package logger, silent by default. The root package
// propagates its configured logger here via SetLogger.
var logger = slog.New(slog.DiscardHandler)

// SetLogger configures logging for the transport package. Pass nil to
// silence it again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger = l
}

// Channel is a newline-framed bidirectional byte stream to the renderer.
//
// Channel is not safe for concurrent use; the engine is single-threaded
// by design and the channel owns its connection exclusively.
type Channel struct {
	explicit string // explicit endpoint from Dial; dropped on Reconnect
	endpoint Endpoint
	conn     net.Conn

	connected bool
	maxLine   int

	// buf holds bytes read but not yet consumed as lines. One large
	// read may carry several messages; they are handed out one per
	// RecvLine call.
	buf []byte

	// discard is set while skipping the tail of an oversized line.
	discard bool
}

// Dial resolves an endpoint (see ResolveEndpoint) and connects to it.
//
// Dial always returns a usable Channel. On failure the channel reports
// Connected() == false and every send is dropped; the error describes
// the failure so the caller can surface a one-time warning.
func Dial(explicit string) (*Channel, error) {
	c := &Channel{explicit: explicit, maxLine: DefaultMaxLine}
	if err := c.dial(); err != nil {
		return c, err
	}
	return c, nil
}

// dial resolves and connects. On success the channel is connected and
// its read buffer is empty.
func (c *Channel) dial() error {
	ep, err := ResolveEndpoint(c.explicit)
	if err != nil {
		return err
	}
	if err := ep.supported(); err != nil {
		return err
	}

	conn, err := net.DialTimeout(string(ep.Network), ep.Address, dialTimeout)
	if err != nil {
		return err
	}

	c.endpoint = ep
	c.conn = conn
	c.connected = true
	c.buf = c.buf[:0]
	c.discard = false
	logger.Debug("transport connected", "endpoint", ep.String())
	return nil
}

// Connected reports whether the channel has a live connection.
func (c *Channel) Connected() bool { return c.connected }

// Endpoint returns the endpoint of the current or last connection.
func (c *Channel) Endpoint() Endpoint { return c.endpoint }

// Send writes the payload followed by a single newline terminator.
// Partial writes are retried until complete; on error the channel flips
// to disconnected and ErrDisconnected is returned.
func (c *Channel) Send(payload []byte) error {
	if !c.connected {
		return ErrDisconnected
	}
	if err := c.writeAll(payload); err != nil {
		return err
	}
	return c.writeAll([]byte{'\n'})
}

func (c *Channel) writeAll(p []byte) error {
	for len(p) > 0 {
		n, err := c.conn.Write(p)
		if err != nil {
			c.drop()
			return ErrDisconnected
		}
		p = p[n:]
	}
	return nil
}

// HasPending reports, without blocking, whether at least one inbound
// byte is buffered or has arrived.
func (c *Channel) HasPending() bool {
	if len(c.buf) > 0 {
		return true
	}
	if !c.connected {
		return false
	}
	return c.fill(time.Now().Add(pollGrace))
}

// RecvLine returns one newline-delimited message, without its
// terminator. A zero timeout polls: already-arrived bytes are returned
// and the wait is capped at the poll grace period. Otherwise the call
// blocks up to the timeout. A line longer than the channel's limit is returned truncated
// with no signal, and its remainder is discarded.
func (c *Channel) RecvLine(timeout time.Duration) ([]byte, error) {
	if timeout < pollGrace {
		timeout = pollGrace
	}
	deadline := time.Now().Add(timeout)
	for {
		if line, ok := c.takeLine(); ok {
			return line, nil
		}
		if !c.connected {
			return nil, ErrDisconnected
		}
		if !c.fill(deadline) {
			if !c.connected {
				return nil, ErrDisconnected
			}
			return nil, ErrTimeout
		}
	}
}

// takeLine extracts the next complete line from the buffer, applying
// truncation and discard handling.
func (c *Channel) takeLine() ([]byte, bool) {
	for {
		i := bytes.IndexByte(c.buf, '\n')

		if c.discard {
			if i < 0 {
				// Still inside an oversized line's tail.
				c.buf = c.buf[:0]
				return nil, false
			}
			c.buf = append(c.buf[:0], c.buf[i+1:]...)
			c.discard = false
			continue
		}

		if i >= 0 {
			n := i
			if n > c.maxLine {
				n = c.maxLine
			}
			line := make([]byte, n)
			copy(line, c.buf[:n])
			c.buf = append(c.buf[:0], c.buf[i+1:]...)
			return line, true
		}

		if len(c.buf) > c.maxLine {
			// No terminator yet and the line is already over budget:
			// hand out the truncated prefix, drop until the newline.
			line := make([]byte, c.maxLine)
			copy(line, c.buf[:c.maxLine])
			c.buf = c.buf[:0]
			c.discard = true
			return line, true
		}
		return nil, false
	}
}

// fill performs one read with the given absolute deadline and appends
// the result to the buffer. Returns true when bytes arrived. A read
// failure other than a timeout disconnects the channel.
func (c *Channel) fill(deadline time.Time) bool {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		c.drop()
		return false
	}
	chunk := make([]byte, readChunk)
	n, err := c.conn.Read(chunk)
	if n > 0 {
		c.buf = append(c.buf, chunk[:n]...)
	}
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return n > 0
		}
		c.drop()
	}
	return n > 0
}

// drop closes the connection and marks the channel disconnected.
// Buffered bytes of incomplete lines are abandoned.
func (c *Channel) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.connected {
		logger.Debug("transport disconnected", "endpoint", c.endpoint.String())
	}
	c.connected = false
	c.buf = c.buf[:0]
	c.discard = false
}

// Reconnect closes the current connection and retries dialing a bounded
// number of times. Discovery is re-run from scratch: the renderer may
// have restarted with a new socket, so a previously used explicit
// endpoint is intentionally forgotten.
func (c *Channel) Reconnect() error {
	c.drop()
	c.explicit = ""

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(reconnectDelay), reconnectAttempts)
	return backoff.Retry(c.dial, policy)
}

// Close shuts the connection down. The channel reports disconnected
// afterwards; it is still valid to call Reconnect.
func (c *Channel) Close() error {
	c.drop()
	return nil
}
