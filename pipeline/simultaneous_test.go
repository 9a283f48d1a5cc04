package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/chart"
)

func runSimultaneous(t *testing.T, n *Simultaneous, c *chart.Chart) *chart.Chart {
	t.Helper()
	n.From = *resolvedBucket("in", true)
	n.Into = *resolvedBucket("out", true)
	require.NoError(t, n.Prepare())

	ctx := testContext()
	ctx.Store.Put(&n.From, []*chart.Chart{c})
	require.NoError(t, n.Apply(ctx))

	var out []*chart.Chart
	require.NoError(t, ctx.Store.GetEach(&n.Into, func(c *chart.Chart) error {
		out = append(out, c)
		return nil
	}))
	require.Len(t, out, 1)
	return out[0]
}

// maxConcurrent walks the chart and returns the peak number of pressed
// keys, counting held columns between head and tail.
func maxConcurrent(c *chart.Chart) int {
	held := make([]bool, c.KeyCount())
	peak := 0
	i := 0
	for i < len(c.Notes) {
		beat := c.Notes[i].Beat
		taps := 0
		for i < len(c.Notes) && c.Notes[i].Beat.Equal(beat) {
			note := c.Notes[i]
			switch {
			case note.IsTail():
				held[note.Key] = false
			case note.IsHead():
				held[note.Key] = true
			default:
				taps++
			}
			i++
		}
		total := taps
		for _, h := range held {
			if h {
				total++
			}
		}
		if total > peak {
			peak = total
		}
	}
	return peak
}

func TestSimultaneousCapsRowWidth(t *testing.T) {
	src := noteChart(chart.DanceSingle, []chart.Note{
		tap(0, 0), tap(0, 1), tap(0, 2), tap(0, 3),
		tap(1, 0), tap(1, 1), tap(1, 2),
		tap(2, 0),
	})
	n := NewSimultaneous()
	n.Max = 2

	got := runSimultaneous(t, n, src)
	assert.Equal(t, 2, maxConcurrent(got))
	require.NoError(t, got.Check())
}

func TestSimultaneousCountsHeldColumns(t *testing.T) {
	// The hold occupies a key, so the two-tap row on top of it exceeds a
	// cap of 2 and loses a note.
	src := noteChart(chart.DanceSingle, []chart.Note{
		head(0, 0),
		tap(1, 1), tap(1, 2),
		tail(2, 0),
	})
	n := NewSimultaneous()
	n.Max = 2

	got := runSimultaneous(t, n, src)
	assert.LessOrEqual(t, maxConcurrent(got), 2)
	require.NoError(t, got.Check())
}

func TestSimultaneousDropsOrphanedTails(t *testing.T) {
	// Both holds start on one row; with a cap of 1 one head is trimmed
	// and its tail must follow.
	src := noteChart(chart.DanceSingle, []chart.Note{
		head(0, 0), head(0, 1),
		tail(1, 0), tail(1, 1),
	})
	n := NewSimultaneous()
	n.Max = 1

	got := runSimultaneous(t, n, src)
	require.Len(t, got.Notes, 2, "one full hold survives")
	assert.True(t, got.Notes[0].IsHead())
	assert.True(t, got.Notes[1].IsTail())
	assert.Equal(t, got.Notes[0].Key, got.Notes[1].Key)
	require.NoError(t, got.Check())
}

func TestSimultaneousLeavesNarrowRowsAlone(t *testing.T) {
	notes := []chart.Note{tap(0, 0), tap(1, 1), head(2, 2), tail(3, 2)}
	src := noteChart(chart.DanceSingle, append([]chart.Note(nil), notes...))
	n := NewSimultaneous()
	n.Max = 2

	got := runSimultaneous(t, n, src)
	assert.Equal(t, notes, got.Notes)
}

func TestSimultaneousPrepareRejectsZeroCap(t *testing.T) {
	n := NewSimultaneous()
	n.Max = 0
	assert.Error(t, n.Prepare())
}
