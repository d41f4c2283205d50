// Package transport implements the local byte-stream channel to the
// renderer: endpoint discovery, dialing, newline-delimited message
// framing, non-blocking pending checks, timed line reads, and bounded
// reconnection.
//
// The channel owns the underlying connection exclusively. Disconnection
// is silent at this layer: operations flip the channel to disconnected
// and higher components observe Connected() == false.
package transport

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Endpoint errors.
var (
	// ErrBadEndpoint is returned for endpoint strings that match no
	// supported form.
	ErrBadEndpoint = errors.New("transport: malformed endpoint")
)

// Network identifies the transport protocol of an endpoint.
type Network string

// Supported endpoint networks.
const (
	NetworkTCP   Network = "tcp"
	NetworkUnix  Network = "unix"
	NetworkNPipe Network = "npipe"
)

// Endpoint is a parsed transport address.
type Endpoint struct {
	Network Network

	// Address is the dialable address: "host:port" for tcp, a
	// filesystem path for unix, a pipe path for npipe.
	Address string
}

// String returns the canonical URI form.
func (e Endpoint) String() string {
	switch e.Network {
	case NetworkTCP:
		return "tcp://" + e.Address
	case NetworkNPipe:
		return "npipe://" + strings.TrimPrefix(e.Address, `\\.\pipe\`)
	default:
		return "unix://" + e.Address
	}
}

// ParseEndpoint parses an endpoint URI. Supported forms:
//
//	tcp://host:port
//	unix:///absolute/path  (or unix://localhost/path)
//	npipe:///name
//	/bare/filesystem/path  (treated as a unix domain socket)
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Endpoint{}, ErrBadEndpoint
	}

	switch {
	case strings.HasPrefix(s, "tcp://"):
		hostport := s[len("tcp://"):]
		host, port, ok := strings.Cut(hostport, ":")
		if !ok || host == "" {
			return Endpoint{}, fmt.Errorf("%w: %q", ErrBadEndpoint, s)
		}
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return Endpoint{}, fmt.Errorf("%w: bad port in %q", ErrBadEndpoint, s)
		}
		return Endpoint{Network: NetworkTCP, Address: hostport}, nil

	case strings.HasPrefix(s, "unix://"):
		path := s[len("unix://"):]
		// unix://localhost/path is an accepted spelling.
		path = strings.TrimPrefix(path, "localhost")
		if path == "" || !strings.HasPrefix(path, "/") {
			return Endpoint{}, fmt.Errorf("%w: %q", ErrBadEndpoint, s)
		}
		return Endpoint{Network: NetworkUnix, Address: path}, nil

	case strings.HasPrefix(s, "npipe://"):
		name := strings.TrimPrefix(s[len("npipe://"):], "/")
		if name == "" {
			return Endpoint{}, fmt.Errorf("%w: %q", ErrBadEndpoint, s)
		}
		return Endpoint{Network: NetworkNPipe, Address: `\\.\pipe\` + name}, nil

	default:
		// A bare filesystem path is a local domain socket.
		return Endpoint{Network: NetworkUnix, Address: s}, nil
	}
}

// supported reports whether the endpoint can be dialed on this platform.
func (e Endpoint) supported() error {
	if e.Network == NetworkNPipe && runtime.GOOS != "windows" {
		return fmt.Errorf("transport: named pipes are not supported on %s", runtime.GOOS)
	}
	return nil
}
