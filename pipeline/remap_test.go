package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/chart"
)

func noteChart(gm chart.Gamemode, notes []chart.Note) *chart.Chart {
	return &chart.Chart{
		Gamemode: gm,
		Desc:     "test",
		BPMs:     []chart.ControlPoint{{Beat: chart.BeatsFromFloat(0), BeatLen: 0.5}},
		Notes:    notes,
	}
}

func tap(beat float64, key int) chart.Note {
	return chart.Note{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(beat), Key: key}
}

func head(beat float64, key int) chart.Note {
	return chart.Note{Kind: chart.KindHead, Beat: chart.BeatsFromFloat(beat), Key: key}
}

func tail(beat float64, key int) chart.Note {
	return chart.Note{Kind: chart.KindTail, Beat: chart.BeatsFromFloat(beat), Key: key}
}

func runRemap(t *testing.T, n *Remap, c *chart.Chart) *chart.Chart {
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

func TestRemapConvertsKeycount(t *testing.T) {
	src := noteChart(chart.DanceSingle, []chart.Note{
		tap(0, 0), tap(0.5, 1), tap(1, 2), tap(1.5, 3),
		head(2, 0), tail(3, 0),
		tap(3.5, 1), tap(4, 2),
	})
	n := NewRemap()
	n.Gamemode = chart.Kb7Single

	got := runRemap(t, n, src)
	assert.Equal(t, chart.Kb7Single, got.Gamemode)
	assert.Len(t, got.Notes, 8, "7 columns fit every 4K note")
	for _, note := range got.Notes {
		assert.GreaterOrEqual(t, note.Key, 0)
		assert.Less(t, note.Key, 7)
	}
	require.NoError(t, got.Check(), "holds must stay paired on one column")
}

func TestRemapAvoidShuffleKeepsColumns(t *testing.T) {
	notes := []chart.Note{tap(0, 0), tap(1, 3), head(2, 1), tail(3, 1)}
	src := noteChart(chart.DanceSingle, append([]chart.Note(nil), notes...))
	n := NewRemap()
	n.Gamemode = chart.DanceSingle

	got := runRemap(t, n, src)
	assert.Equal(t, notes, got.Notes, "matching keycount must not reshuffle")
}

func TestRemapIsDeterministicForSameSeed(t *testing.T) {
	notes := []chart.Note{
		tap(0, 0), tap(0.25, 1), tap(0.5, 2), tap(0.75, 3),
		tap(1, 0), tap(1.25, 1), tap(1.5, 2), tap(1.75, 3),
	}
	mk := func() *chart.Chart {
		return noteChart(chart.DanceSingle, append([]chart.Note(nil), notes...))
	}
	n1 := NewRemap()
	n1.Gamemode = chart.PumpSingle
	n2 := NewRemap()
	n2.Gamemode = chart.PumpSingle

	a := runRemap(t, n1, mk())
	b := runRemap(t, n2, mk())
	assert.Equal(t, a.Notes, b.Notes, "same seed and chart must produce identical output")
}

func TestRemapSimultaneousNotesLandOnDistinctColumns(t *testing.T) {
	src := noteChart(chart.DanceSingle, []chart.Note{
		tap(0, 0), tap(0, 1), tap(0, 2), tap(0, 3),
	})
	n := NewRemap()
	n.Gamemode = chart.PumpSingle

	got := runRemap(t, n, src)
	require.Len(t, got.Notes, 4)
	seen := map[int]bool{}
	for _, note := range got.Notes {
		assert.False(t, seen[note.Key], "column %d used twice in one row", note.Key)
		seen[note.Key] = true
	}
}

func TestRemapDropsNotesWhenEveryColumnIsHeld(t *testing.T) {
	// Three overlapping holds fill a 3-panel chart; the tap in the middle
	// has nowhere to go.
	src := noteChart(chart.DanceThreepanel, []chart.Note{
		head(0, 0), head(0, 1), head(0, 2),
		tap(1, 0),
		tail(2, 0), tail(2, 1), tail(2, 2),
	})
	n := NewRemap()
	n.Gamemode = chart.DanceThreepanel
	n.AvoidShuffle = false

	got := runRemap(t, n, src)
	assert.Len(t, got.Notes, 6, "the squeezed-out tap is dropped")
	require.NoError(t, got.Check())
}
