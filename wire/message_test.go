package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
		check   func(t *testing.T, m Message)
	}{
		{
			name: "current page resize",
			line: `{"type":"resize","width":800,"height":600}`,
			check: func(t *testing.T, m Message) {
				r := m.(*Resize)
				if r.Width != 800 || r.Height != 600 {
					t.Errorf("dims = %v x %v", r.Width, r.Height)
				}
				if r.Historical() {
					t.Error("resize without plotIndex reported historical")
				}
			},
		},
		{
			name: "historical resize",
			line: `{"type":"resize","width":400,"height":300,"plotIndex":2}`,
			check: func(t *testing.T, m Message) {
				r := m.(*Resize)
				if !r.Historical() || *r.PlotIndex != 2 {
					t.Errorf("plotIndex = %v", r.PlotIndex)
				}
			},
		},
		{
			name: "historical resize of oldest page",
			line: `{"type":"resize","width":400,"height":300,"plotIndex":0}`,
			check: func(t *testing.T, m Message) {
				if !m.(*Resize).Historical() {
					t.Error("plotIndex 0 must still be historical")
				}
			},
		},
		{
			name: "metrics response",
			line: `{"type":"metrics_response","id":3,"width":41.5,"ascent":9,"descent":3}`,
			check: func(t *testing.T, m Message) {
				r := m.(*MetricsResponse)
				if r.ID != 3 || r.Width != 41.5 || r.Ascent != 9 || r.Descent != 3 {
					t.Errorf("unexpected response %+v", r)
				}
			},
		},
		{
			name: "server info",
			line: `{"type":"server_info","serverName":"renderer","protocolVersion":1,"transport":"unix","serverInfo":{"os":"linux"}}`,
			check: func(t *testing.T, m Message) {
				s := m.(*ServerInfo)
				if s.ServerName != "renderer" || s.ProtocolVersion != 1 {
					t.Errorf("unexpected server info %+v", s)
				}
				if s.Info["os"] != "linux" {
					t.Errorf("capability map = %v", s.Info)
				}
			},
		},
		{
			name:    "resize with zero width",
			line:    `{"type":"resize","width":0,"height":600}`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "resize with negative height",
			line:    `{"type":"resize","width":800,"height":-1}`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "not json",
			line:    `{"type":"resize",`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "unknown type is skippable",
			line:    `{"type":"shutdown_hint"}`,
			wantErr: ErrUnknownMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMessage([]byte(tt.line))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessage: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestMetricsRequestEncode(t *testing.T) {
	req := &MetricsRequest{
		ID:   7,
		Kind: MetricsStrWidth,
		Str:  "hello",
		Font: Font{Family: "sans", Face: 2, Size: 12},
	}
	var decoded struct {
		Type string `json:"type"`
		ID   int    `json:"id"`
		Kind string `json:"kind"`
		Str  string `json:"str"`
		GC   struct {
			Font struct {
				Family string  `json:"family"`
				Face   int     `json:"face"`
				Size   float64 `json:"size"`
			} `json:"font"`
		} `json:"gc"`
	}
	if err := json.Unmarshal(req.Encode(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "metrics_request" || decoded.ID != 7 || decoded.Kind != "strWidth" {
		t.Errorf("envelope wrong: %+v", decoded)
	}
	if decoded.Str != "hello" {
		t.Errorf("str = %q", decoded.Str)
	}
	if decoded.GC.Font.Family != "sans" || decoded.GC.Font.Face != 2 || decoded.GC.Font.Size != 12 {
		t.Errorf("gc.font wrong: %+v", decoded.GC.Font)
	}
}

func TestMetricsRequestEncodeChar(t *testing.T) {
	req := &MetricsRequest{
		ID:   8,
		Kind: MetricsMetricInfo,
		Char: 'W',
		Font: Font{Family: "mono", Face: 1, Size: 10},
	}
	var decoded struct {
		Kind string `json:"kind"`
		Char int    `json:"c"`
	}
	if err := json.Unmarshal(req.Encode(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != "metricInfo" || decoded.Char != 'W' {
		t.Errorf("char request wrong: %+v", decoded)
	}
}
