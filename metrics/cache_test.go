package metrics

import (
	"testing"

	"github.com/gogpu/plotstream/wire"
)

func TestCacheStoreLookup(t *testing.T) {
	var c cache
	if _, ok := c.lookup(42); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.store(42, 1.5, 2.5, 3.5)
	e, ok := c.lookup(42)
	if !ok {
		t.Fatal("stored entry not found")
	}
	if e.v1 != 1.5 || e.v2 != 2.5 || e.v3 != 3.5 {
		t.Errorf("entry = %+v", e)
	}
}

func TestCacheSlotCollisionEvicts(t *testing.T) {
	var c cache

	// Two hashes mapping to the same direct-mapped slot: the later store
	// replaces the earlier one.
	h1 := uint64(7)
	h2 := h1 + cacheSize

	c.store(h1, 10, 0, 0)
	c.store(h2, 20, 0, 0)

	if _, ok := c.lookup(h1); ok {
		t.Error("evicted entry still found")
	}
	e, ok := c.lookup(h2)
	if !ok || e.v1 != 20 {
		t.Errorf("replacement entry = %+v, ok = %v", e, ok)
	}
}

func TestQueryHashSensitivity(t *testing.T) {
	base := wire.Font{Family: "sans", Face: 1, Size: 12}
	h := queryHash("hello", base)

	if queryHash("hello", base) != h {
		t.Error("hash not deterministic")
	}
	if queryHash("hellp", base) == h {
		t.Error("hash ignores the text")
	}

	bold := base
	bold.Face = 2
	if queryHash("hello", bold) == h {
		t.Error("hash ignores the face")
	}

	big := base
	big.Size = 14
	if queryHash("hello", big) == h {
		t.Error("hash ignores the size")
	}

	serif := base
	serif.Family = "serif"
	if queryHash("hello", serif) == h {
		t.Error("hash ignores the family")
	}
}
