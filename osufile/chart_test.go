package osufile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/chart"
	"github.com/negamartin/osu2sm/errors"
)

func parseSample(t *testing.T) *Beatmap {
	t.Helper()
	bm, err := Parse(strings.NewReader(sampleMania))
	require.NoError(t, err)
	return bm
}

func TestToChartMetadata(t *testing.T) {
	c, err := parseSample(t).ToChart()
	require.NoError(t, err)

	assert.Equal(t, chart.DanceSingle, c.Gamemode)
	assert.Equal(t, "ナイト・オブ・ナイツ", c.Title)
	assert.Equal(t, "Night of Knights", c.TitleTrans)
	assert.Equal(t, "ビート", c.Artist)
	assert.Equal(t, "beet", c.ArtistTrans)
	assert.Equal(t, "Touhou", c.Genre)
	assert.Equal(t, "mapper", c.Credit)
	assert.Equal(t, "4K Hard", c.Desc)
	assert.Equal(t, "audio.mp3", c.Music)
	assert.Equal(t, "bg.jpg", c.Background)
	assert.Equal(t, 31.5, c.SampleStart)
	assert.Equal(t, 15.0, c.SampleLen)
}

func TestToChartAnchorsBeatZero(t *testing.T) {
	c, err := parseSample(t).ToChart()
	require.NoError(t, err)

	// The first tempo point sits at 1000ms, so beat 0 plays one second
	// into the audio.
	assert.Equal(t, -1.0, c.Offset)
	require.Len(t, c.BPMs, 1)
	assert.InDelta(t, 120, c.BPMs[0].BPM(), 1e-9)
}

func TestToChartNotes(t *testing.T) {
	c, err := parseSample(t).ToChart()
	require.NoError(t, err)

	// 500ms per beat from 1000ms: taps at beats 0 and 1, a hold spanning
	// beats 2 to 4, and a tap sharing the hold's head row.
	want := []chart.Note{
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(0), Key: 0},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(1), Key: 1},
		{Kind: chart.KindHead, Beat: chart.BeatsFromFloat(2), Key: 2},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(2), Key: 3},
		{Kind: chart.KindTail, Beat: chart.BeatsFromFloat(4), Key: 2},
	}
	assert.Equal(t, want, c.Notes)
	require.NoError(t, c.Check())
}

func TestToChartRejectsNonMania(t *testing.T) {
	bm := parseSample(t)
	bm.Mode = ModeOsu
	_, err := bm.ToChart()
	require.Error(t, err)
	assert.True(t, errors.IsModeMismatch(err))
}

func TestToChartNeedsTempo(t *testing.T) {
	bm := parseSample(t)
	bm.TimingPoints = nil
	_, err := bm.ToChart()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timing")
}

func TestToChartAccumulatesTempoChanges(t *testing.T) {
	bm := parseSample(t)
	// A second tempo change 2s (4 beats) after the first, twice as fast.
	bm.TimingPoints = append(bm.TimingPoints, TimingPoint{
		Time: 3000, BeatLen: 250, Uninherited: true,
	})
	c, err := bm.ToChart()
	require.NoError(t, err)

	require.Len(t, c.BPMs, 2)
	assert.True(t, c.BPMs[1].Beat.Equal(chart.BeatsFromFloat(4)))
	assert.InDelta(t, 240, c.BPMs[1].BPM(), 1e-9)
}

func TestToChartDropsDuplicateCells(t *testing.T) {
	bm := parseSample(t)
	bm.HitObjects = append(bm.HitObjects, bm.HitObjects[0])
	c, err := bm.ToChart()
	require.NoError(t, err)
	assert.Len(t, c.Notes, 5, "a duplicate cell parses to a single note")
	require.NoError(t, c.Check())
}
