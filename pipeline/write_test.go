package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/chart"
)

func TestSimfileWriteProducesSimfile(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "audio.mp3"), []byte("sound"), 0o644))

	c := noteChart(chart.DanceSingle, []chart.Note{tap(0, 0), tap(1, 1)})
	c.Title = "Song"
	c.Music = "audio.mp3"
	c.DiffName = "Medium"

	n := NewSimfileWrite()
	n.From = *resolvedBucket("done", true)
	n.Into = *resolvedBucket("", false)
	n.Output = outDir
	require.NoError(t, n.Prepare())

	ctx := testContext()
	ctx.Store.GlobalSet(GlobalSetDir, srcDir)
	ctx.Store.GlobalSet(GlobalSetName, "myset")
	ctx.Store.Put(&n.From, []*chart.Chart{c})
	require.NoError(t, n.Apply(ctx))

	sm, err := os.ReadFile(filepath.Join(outDir, "myset", "myset.sm"))
	require.NoError(t, err)
	assert.Contains(t, string(sm), "#TITLE:Song;")
	assert.Contains(t, string(sm), "dance-single")

	music, err := os.ReadFile(filepath.Join(outDir, "myset", "audio.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []byte("sound"), music)
}

func TestSimfileWriteDropsMalformedCharts(t *testing.T) {
	outDir := t.TempDir()

	// A lone tail has no matching head and must never reach disk.
	broken := noteChart(chart.DanceSingle, []chart.Note{tail(1, 0)})

	n := NewSimfileWrite()
	n.From = *resolvedBucket("done", true)
	n.Into = *resolvedBucket("", false)
	n.Output = outDir
	require.NoError(t, n.Prepare())

	ctx := testContext()
	ctx.Store.GlobalSet(GlobalSetDir, t.TempDir())
	ctx.Store.GlobalSet(GlobalSetName, "myset")
	ctx.Store.Put(&n.From, []*chart.Chart{broken})
	require.NoError(t, n.Apply(ctx))

	_, err := os.Stat(filepath.Join(outDir, "myset"))
	assert.True(t, os.IsNotExist(err), "an all-broken list writes nothing")
}

func TestSimfileWriteRequiresGlobals(t *testing.T) {
	n := NewSimfileWrite()
	n.From = *resolvedBucket("done", true)
	n.Into = *resolvedBucket("", false)
	n.Output = t.TempDir()

	ctx := testContext()
	err := n.Apply(ctx)
	assert.Error(t, err, "the loader's globals are required")
}
