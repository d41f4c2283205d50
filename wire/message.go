package wire

import (
	"encoding/json"
	"errors"
)

// Sentinel errors for wire parsing.
var (
	// ErrMalformedMessage is returned when an inbound line is not valid
	// JSON or lacks required fields. Callers skip the message; a bad
	// line from the peer is never fatal.
	ErrMalformedMessage = errors.New("wire: malformed message")

	// ErrUnknownMessage is returned for well-formed messages whose type
	// tag this version does not understand. Callers skip the message so
	// newer peers can extend the protocol.
	ErrUnknownMessage = errors.New("wire: unknown message type")
)

// Message is one inbound control message, discriminated by its "type"
// field. Concrete types: *Resize, *MetricsResponse, *ServerInfo.
type Message interface {
	// MessageType returns the wire type tag.
	MessageType() string
}

// Resize asks the producer to re-emit a page at new pixel dimensions.
// PlotIndex, when non-nil, selects a historical page in the snapshot
// history; nil targets the current live page.
type Resize struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	PlotIndex *int    `json:"plotIndex,omitempty"`
}

// MessageType implements Message.
func (*Resize) MessageType() string { return "resize" }

// Historical reports whether the resize targets a page in history.
func (r *Resize) Historical() bool { return r.PlotIndex != nil }

// MetricsResponse answers a MetricsRequest. Width is always present;
// Ascent and Descent are present only for "metricInfo" queries.
type MetricsResponse struct {
	ID      int     `json:"id"`
	Width   float64 `json:"width"`
	Ascent  float64 `json:"ascent"`
	Descent float64 `json:"descent"`
}

// MessageType implements Message.
func (*MetricsResponse) MessageType() string { return "metrics_response" }

// ServerInfo is the peer's welcome message, read once after connecting.
// Info carries free-form string capability pairs.
type ServerInfo struct {
	ServerName      string            `json:"serverName"`
	ProtocolVersion int               `json:"protocolVersion"`
	Transport       string            `json:"transport"`
	Info            map[string]string `json:"serverInfo"`
}

// MessageType implements Message.
func (*ServerInfo) MessageType() string { return "server_info" }

// envelope is the minimal decode used to discriminate inbound messages.
type envelope struct {
	Type string `json:"type"`
}

// ParseMessage decodes one inbound line into its concrete message type.
// Returns ErrMalformedMessage for unparseable input and ErrUnknownMessage
// for unrecognized type tags; both are skippable conditions.
func ParseMessage(line []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, ErrMalformedMessage
	}

	switch env.Type {
	case "resize":
		var m Resize
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, ErrMalformedMessage
		}
		if m.Width <= 0 || m.Height <= 0 {
			return nil, ErrMalformedMessage
		}
		return &m, nil
	case "metrics_response":
		var m MetricsResponse
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, ErrMalformedMessage
		}
		return &m, nil
	case "server_info":
		var m ServerInfo
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, ErrMalformedMessage
		}
		return &m, nil
	default:
		return nil, ErrUnknownMessage
	}
}

// MetricsRequest asks the peer to measure text with its real font stack.
// Kind is "strWidth" (measure Str) or "metricInfo" (measure the single
// character Char).
type MetricsRequest struct {
	ID   int
	Kind string
	Str  string
	Char rune
	Font Font
}

// Metrics request kinds.
const (
	MetricsStrWidth   = "strWidth"
	MetricsMetricInfo = "metricInfo"
)

// Encode returns the request as one wire line (without the newline
// terminator; the transport adds framing).
func (r *MetricsRequest) Encode() []byte {
	type gcJSON struct {
		Font struct {
			Family string  `json:"family"`
			Face   int     `json:"face"`
			Size   float64 `json:"size"`
		} `json:"font"`
	}
	msg := struct {
		Type string `json:"type"`
		ID   int    `json:"id"`
		Kind string `json:"kind"`
		Str  string `json:"str,omitempty"`
		Char int    `json:"c,omitempty"`
		GC   gcJSON `json:"gc"`
	}{
		Type: "metrics_request",
		ID:   r.ID,
		Kind: r.Kind,
	}
	if r.Kind == MetricsStrWidth {
		msg.Str = r.Str
	} else {
		msg.Char = int(r.Char)
	}
	msg.GC.Font.Family = r.Font.Family
	msg.GC.Font.Face = r.Font.Face
	msg.GC.Font.Size = r.Font.Size

	// Marshaling a struct of strings and numbers cannot fail.
	data, _ := json.Marshal(msg)
	return data
}

// CloseMessage is the line sent once before shutting the channel.
var CloseMessage = []byte(`{"type":"close"}`)

// PingMessage elicits the peer's server_info welcome after connecting.
var PingMessage = []byte(`{"type":"ping"}`)
