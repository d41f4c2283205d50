// Package metrics implements the text-metrics exchange: synchronous
// request/response queries over the transport channel, a lossy
// direct-mapped result cache, and a local fallback chain used whenever
// the peer cannot answer.
package metrics

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/gogpu/plotstream/wire"
)

// cacheSize is the number of direct-mapped slots. Power of two so the
// modulo is cheap.
const cacheSize = 512

// cacheEntry stores the last response for a hash slot. v1 is the string
// width for strWidth queries; v1/v2/v3 are ascent/descent/width for
// metricInfo queries.
type cacheEntry struct {
	hash     uint64
	v1       float64
	v2       float64
	v3       float64
	occupied bool
}

// cache is a fixed-size direct-mapped table trusted purely by hash
// equality: no secondary key is stored or compared, so two queries that
// collide on the 64-bit hash silently share a slot and the later reader
// gets a wrong-but-plausible value. This trades a negligible
// incorrect-result probability for O(1) lookups without key storage.
type cache struct {
	slots [cacheSize]cacheEntry
}

func (c *cache) lookup(hash uint64) (*cacheEntry, bool) {
	e := &c.slots[hash%cacheSize]
	if e.occupied && e.hash == hash {
		return e, true
	}
	return nil, false
}

func (c *cache) store(hash uint64, v1, v2, v3 float64) {
	e := &c.slots[hash%cacheSize]
	*e = cacheEntry{hash: hash, v1: v1, v2: v2, v3: v3, occupied: true}
}

// queryHash hashes the query text together with the font attributes that
// influence the answer. FNV-1a, matching the hasher used elsewhere in
// the gogpu libraries.
func queryHash(text string, f wire.Font) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	_, _ = h.Write([]byte(f.Family))

	var tail [16]byte
	binary.LittleEndian.PutUint64(tail[0:8], uint64(int64(f.Face)))
	binary.LittleEndian.PutUint64(tail[8:16], math.Float64bits(f.Size))
	_, _ = h.Write(tail[:])
	return h.Sum64()
}
