package page

import (
	"bytes"
	"testing"

	"github.com/gogpu/plotstream/wire"
)

func testMeta() wire.DeviceMeta {
	return wire.DeviceMeta{Width: 700, Height: 700, DPI: 96, Background: wire.White}
}

func TestPageAppend(t *testing.T) {
	p := New(testMeta())
	if p.OpCount() != 0 {
		t.Fatalf("new page has %d ops", p.OpCount())
	}

	if n := p.Append(wire.Line{X2: 1}); n != 1 {
		t.Errorf("Append returned %d, want 1", n)
	}
	if n := p.Append(wire.Circle{R: 2}); n != 2 {
		t.Errorf("Append returned %d, want 2", n)
	}

	want := append(wire.Line{X2: 1}.AppendJSON(nil), ',')
	want = wire.Circle{R: 2}.AppendJSON(want)
	if !bytes.Equal(p.OpsBytes(), want) {
		t.Errorf("ops buffer\n got %s\nwant %s", p.OpsBytes(), want)
	}
}

func TestPageBytesOffsetsStable(t *testing.T) {
	p := New(testMeta())
	p.Append(wire.Line{X2: 1})
	mark := len(p.OpsBytes())
	prefix := string(p.OpsBytes())

	p.Append(wire.Line{X2: 2})
	if string(p.OpsBytes()[:mark]) != prefix {
		t.Error("append rewrote the already encoded prefix")
	}
}

func TestPageBegin(t *testing.T) {
	p := New(testMeta())
	p.Append(wire.Line{X2: 1})

	meta := testMeta()
	meta.Width, meta.Height = 800, 600
	p.Begin(meta)

	if p.OpCount() != 0 || len(p.OpsBytes()) != 0 {
		t.Error("Begin did not clear the log")
	}
	if d := p.Device(); d.Width != 800 || d.Height != 600 {
		t.Errorf("Begin did not adopt new dimensions: %+v", d)
	}
}
