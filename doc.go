// Package plotstream records vector drawing operations and streams them
// to an external renderer over a local socket.
//
// # Overview
//
// plotstream is the producer half of a client/server plotting setup: a
// host graphics framework drives a Device with drawing callbacks, and
// the device serializes each page as newline-delimited JSON frames to a
// renderer process on the same machine. Frames are incremental where
// possible: the first flush of a page is a complete frame, later flushes
// carry only the operations added since.
//
// # Quick Start
//
//	import "github.com/gogpu/plotstream"
//
//	dev, err := plotstream.New(700, 700,
//		plotstream.WithEndpoint("unix:///tmp/renderer.sock"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	dev.NewPage(wire.White)
//	dev.BeginDraw()
//	dev.Line(0, 0, 700, 700, style)
//	dev.EndDraw() // flushes a frame
//
// # Architecture
//
// The library is organized into:
//   - Public API: Device, Option, State
//   - wire: protocol types, operation encoding, frame and message codecs
//   - page: per-page op log and the bounded snapshot history
//   - transport: endpoint discovery and the newline-framed channel
//   - metrics: text measurement, remote with local fallback
//   - raster: image encoding for raster operations
//
// # Concurrency
//
// A Device is single-threaded: all methods run on the host's drawing
// thread, and nothing blocks without a timeout. The host calls
// PollResize at idle points to let the device react to window resizes
// from the renderer.
//
// # Resilience
//
// A device without a renderer keeps working: pages are recorded, text
// metrics are answered locally, and frames flow again after Reconnect.
// Disconnected sends are dropped silently.
package plotstream

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
