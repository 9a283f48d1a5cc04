package smfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/chart"
)

func testChart() *chart.Chart {
	return &chart.Chart{
		Title:      "Song",
		Artist:     "Artist",
		TitleTrans: "Song",
		Credit:     "mapper",
		Music:      "audio.mp3",
		Offset:     -1,
		BPMs:       []chart.ControlPoint{{Beat: chart.BeatsFromFloat(0), BeatLen: 0.5}},
		Gamemode:   chart.DanceSingle,
		Desc:       "4K Hard",
		DiffName:   "Medium",
		Meter:      7,
	}
}

func render(t *testing.T, charts ...*chart.Chart) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, Write(&sb, charts))
	return sb.String()
}

func TestWriteHeader(t *testing.T) {
	out := render(t, testChart())

	for _, want := range []string{
		"#TITLE:Song;",
		"#ARTIST:Artist;",
		"#TITLETRANSLIT:Song;",
		"#CREDIT:mapper;",
		"#MUSIC:audio.mp3;",
		"#OFFSET:-1;",
		"#BPMS:0=120;",
		"#DISPLAYBPM:;",
		"#STOPS:;",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteNotesBlock(t *testing.T) {
	c := testChart()
	c.Notes = []chart.Note{
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(0), Key: 0},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(1), Key: 1},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(2), Key: 2},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(3), Key: 3},
	}
	out := render(t, c)

	assert.Contains(t, out, "#NOTES:\n    dance-single:\n    4K Hard:\n    Medium:\n    7:\n    0, 0, 0, 0, 0:")
	// Whole-beat notes need no subdivision: 4 rows per measure.
	assert.Contains(t, out, "// Measure 0\n1000\n0100\n0010\n0001;")
}

func TestWriteSubdividesOnlyAsNeeded(t *testing.T) {
	c := testChart()
	c.Notes = []chart.Note{
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(0), Key: 0},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(0.5), Key: 1},
	}
	out := render(t, c)

	// The half-beat note forces an 8th grid, 8 rows per measure.
	assert.Contains(t, out,
		"// Measure 0\n1000\n0100\n0000\n0000\n0000\n0000\n0000\n0000;")
}

func TestWriteThirdsGrid(t *testing.T) {
	c := testChart()
	c.Notes = []chart.Note{
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(0), Key: 0},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(1.0 / 3.0), Key: 1},
	}
	out := render(t, c)

	// A 12th-note triplet needs 3 rows per beat, 12 per measure.
	assert.Contains(t, out, "// Measure 0\n1000\n0100\n")
	assert.Equal(t, 12, strings.Count(sectionAfter(out, "// Measure 0"), "\n"))
}

func TestWriteSplitsMeasures(t *testing.T) {
	c := testChart()
	c.Notes = []chart.Note{
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(0), Key: 0},
		{Kind: chart.KindHit, Beat: chart.BeatsFromFloat(4), Key: 1},
	}
	out := render(t, c)

	assert.Contains(t, out, "// Measure 0\n1000\n0000\n0000\n0000,")
	assert.Contains(t, out, "// Measure 1\n0100\n0000\n0000\n0000;")
}

func TestWriteHoldPair(t *testing.T) {
	c := testChart()
	c.Notes = []chart.Note{
		{Kind: chart.KindHead, Beat: chart.BeatsFromFloat(0), Key: 0},
		{Kind: chart.KindTail, Beat: chart.BeatsFromFloat(2), Key: 0},
	}
	out := render(t, c)
	assert.Contains(t, out, "// Measure 0\n2000\n0000\n3000\n0000;")
}

func TestWriteEscapesMetadata(t *testing.T) {
	c := testChart()
	c.Title = "a:b;c#d"
	out := render(t, c)
	assert.Contains(t, out, "#TITLE:abcd;")
}

func TestWriteOneBlockPerChart(t *testing.T) {
	a := testChart()
	b := testChart()
	b.DiffName = "Hard"
	out := render(t, a, b)
	assert.Equal(t, 2, strings.Count(out, "#NOTES:"))
}

func TestWriteEmptyChartList(t *testing.T) {
	var sb strings.Builder
	assert.Error(t, Write(&sb, nil))
}

// sectionAfter returns everything between the marker and the block
// terminator.
func sectionAfter(out, marker string) string {
	_, rest, _ := strings.Cut(out, marker)
	body, _, _ := strings.Cut(rest, ";")
	return body
}
