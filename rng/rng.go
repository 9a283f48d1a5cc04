// Package rng derives the deterministic random generators used by the
// pipeline.
//
// Randomized transforms must be reproducible: the same input and seed
// produce the same output no matter how many beatmapsets run in parallel.
// Instead of a single shared generator, every chart derives its own
// sub-seed from the run seed, the chart's identity and a per-stage salt,
// so parallel walks never contend and never observe scheduling order.
package rng

import (
	"hash/fnv"
	"math/rand"

	"github.com/negamartin/osu2sm/chart"
)

// ChartSeed derives a stable sub-seed for one chart and stage.
//
// The identity fields mirror what survives a metadata-preserving
// transform: music path, transliterated title and source difficulty name.
func ChartSeed(runSeed uint64, c *chart.Chart, salt string) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(runSeed >> (8 * i))
	}
	h.Write(buf[:])
	h.Write([]byte(c.Music))
	h.Write([]byte{0})
	h.Write([]byte(c.TitleTrans))
	h.Write([]byte{0})
	h.Write([]byte(c.Desc))
	h.Write([]byte{0})
	h.Write([]byte(salt))
	return h.Sum64()
}

// New returns a generator seeded with the given sub-seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

// ForChart is shorthand for New(ChartSeed(...)).
func ForChart(runSeed uint64, c *chart.Chart, salt string) *rand.Rand {
	return New(ChartSeed(runSeed, c, salt))
}
