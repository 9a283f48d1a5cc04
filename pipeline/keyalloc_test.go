package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/curve"
	"github.com/negamartin/osu2sm/rng"
)

func testWeights(t *testing.T) *curve.Curve {
	t.Helper()
	c, err := curve.FromPairs(DefaultWeightCurve)
	require.NoError(t, err)
	return c
}

func TestAllocStaysInCandidateSet(t *testing.T) {
	alloc := NewKeyAlloc(testWeights(t), 7)
	rnd := rng.New(1)
	candidates := []int{1, 3, 5}
	for i := 0; i < 200; i++ {
		key, ok := alloc.Alloc(candidates, float64(i)*0.1, rnd)
		require.True(t, ok)
		assert.Contains(t, candidates, key)
	}
}

func TestAllocEmptyCandidates(t *testing.T) {
	alloc := NewKeyAlloc(testWeights(t), 4)
	_, ok := alloc.Alloc(nil, 0, rng.New(1))
	assert.False(t, ok)
}

func TestAllocNReturnsDistinctKeys(t *testing.T) {
	alloc := NewKeyAlloc(testWeights(t), 5)
	rnd := rng.New(42)
	keys, err := alloc.AllocN([]int{0, 1, 2, 3, 4}, 3, 0, rnd)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	seen := map[int]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "key %d picked twice", k)
		seen[k] = true
	}
}

func TestAllocNOfAllReturnsEverything(t *testing.T) {
	alloc := NewKeyAlloc(testWeights(t), 4)
	keys, err := alloc.AllocN([]int{0, 1, 2, 3}, 4, 0, rng.New(7))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, keys)
}

func TestAllocNOverflowIsTransformError(t *testing.T) {
	alloc := NewKeyAlloc(testWeights(t), 2)
	keys, err := alloc.AllocN([]int{0, 1}, 5, 0, rng.New(7))
	assert.Error(t, err)
	// The caller still gets every column so it can clamp the row.
	assert.ElementsMatch(t, []int{0, 1}, keys)
}

func TestAllocAvoidsJacks(t *testing.T) {
	// With the default curve a key that played 0.2s ago weighs ~5 while
	// a key idle for over a second weighs 300, so immediate repeats
	// should be rare on a 7-column layout.
	alloc := NewKeyAlloc(testWeights(t), 7)
	rnd := rng.New(99)
	candidates := []int{0, 1, 2, 3, 4, 5, 6}

	jacks := 0
	last := -1
	const picks = 1000
	for i := 0; i < picks; i++ {
		key, ok := alloc.Alloc(candidates, float64(i)*0.2, rnd)
		require.True(t, ok)
		if key == last {
			jacks++
		}
		last = key
	}
	assert.Less(t, jacks, picks/10, "recency weighting should suppress jacks")
}

func TestWeightUsesInactivity(t *testing.T) {
	alloc := NewKeyAlloc(testWeights(t), 2)
	alloc.Touch(0, 10.0)
	// Key 1 has never played, so it sits at the curve's far end.
	assert.Less(t, alloc.Weight(0, 10.1), alloc.Weight(1, 10.1))
}
