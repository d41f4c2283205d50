package plotstream

import (
	"github.com/gogpu/plotstream/page"
	"github.com/gogpu/plotstream/wire"
)

// Option configures a Device during creation.
// Use functional options to customize Device behavior.
//
// Example:
//
//	// Default: endpoint discovery, 96 DPI, white background
//	dev, _ := plotstream.New(700, 700)
//
//	// Explicit endpoint and higher DPI
//	dev, _ := plotstream.New(1400, 1400,
//	    plotstream.WithEndpoint("unix:///tmp/renderer.sock"),
//	    plotstream.WithDPI(192))
type Option func(*deviceOptions)

// Replayer is a host hook that re-executes the host framework's drawing
// for the current page. It is invoked during a live-page resize so the
// host can recompute derived quantities (text layout, margins) at the
// new dimensions; every drawing call it makes is recorded into the
// rebuilt page. When no Replayer is configured, the device re-appends
// the page's recorded operations itself.
type Replayer func(*Device)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	endpoint        string
	dpi             float64
	background      wire.Color
	historyCapacity int
	sessionID       string
	replayer        Replayer
	fontData        []byte
}

// defaultOptions returns the default device options.
func defaultOptions() deviceOptions {
	return deviceOptions{
		dpi:             96,
		background:      wire.White,
		historyCapacity: page.DefaultHistoryCapacity,
	}
}

// WithEndpoint sets an explicit transport endpoint, bypassing the
// environment variable, config file, and discovery file lookup.
// Accepted forms: "tcp://host:port", "unix:///path", "npipe:///name",
// or a bare filesystem path (treated as a unix domain socket).
func WithEndpoint(endpoint string) Option {
	return func(o *deviceOptions) {
		o.endpoint = endpoint
	}
}

// WithDPI sets the device resolution. The default is 96.
func WithDPI(dpi float64) Option {
	return func(o *deviceOptions) {
		if dpi > 0 {
			o.dpi = dpi
		}
	}
}

// WithBackground sets the default page background color. The default is
// white. NewPage can override it per page.
func WithBackground(bg wire.Color) Option {
	return func(o *deviceOptions) {
		o.background = bg
	}
}

// WithHistoryCapacity bounds the snapshot history. When full, appending
// a snapshot evicts the oldest. The default is
// page.DefaultHistoryCapacity.
func WithHistoryCapacity(n int) Option {
	return func(o *deviceOptions) {
		if n > 0 {
			o.historyCapacity = n
		}
	}
}

// WithSessionID overrides the generated session identifier. Session IDs
// must be unique across concurrent producers talking to one renderer;
// the default is a random UUID.
func WithSessionID(id string) Option {
	return func(o *deviceOptions) {
		o.sessionID = id
	}
}

// WithReplayer installs the host redraw hook used for live-page resizes.
// See Replayer.
func WithReplayer(r Replayer) Option {
	return func(o *deviceOptions) {
		o.replayer = r
	}
}

// WithFontData supplies TTF/OTF font data for local text measurement.
// When set, metrics queries answered locally (disconnected transport,
// peer timeout) use real font metrics instead of the family-fraction
// approximation.
func WithFontData(data []byte) Option {
	return func(o *deviceOptions) {
		o.fontData = data
	}
}
