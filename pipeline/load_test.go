package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maniaMap = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 3

[Metadata]
Title:Song
Artist:Artist
Creator:mapper
Version:4K

[Difficulty]
CircleSize:4

[TimingPoints]
0,500,4,2,0,60,1,0

[HitObjects]
64,192,0,1,0,0:0:0:0:
192,192,500,1,0,0:0:0:0:
`

const standardMap = `osu file format v14

[General]
Mode: 0

[Difficulty]
CircleSize:4

[TimingPoints]
0,500,4,2,0,60,1,0
`

func TestOsuLoadEmitsOneBatchPerSet(t *testing.T) {
	root := t.TempDir()
	set := filepath.Join(root, "123 Artist - Song")
	require.NoError(t, os.MkdirAll(set, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(set, "a.osu"), []byte(maniaMap), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(set, "b.osu"), []byte(standardMap), 0o644))

	n := NewOsuLoad()
	n.Input = root
	require.NoError(t, n.Prepare())

	var batches []*Batch
	err := n.Entry(context.Background(), func(b *Batch) error {
		batches = append(batches, b)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, batches, 1)
	b := batches[0]
	assert.Len(t, b.Charts, 1, "the standard-mode map is skipped")
	assert.Equal(t, set, b.Globals[GlobalSetDir])
	assert.Equal(t, "123 Artist - Song", b.Globals[GlobalSetName])
	assert.Equal(t, "4K", b.Charts[0].Desc)
}

func TestOsuLoadIsolatesBrokenSets(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good")
	bad := filepath.Join(root, "bad")
	require.NoError(t, os.MkdirAll(good, 0o755))
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(good, "a.osu"), []byte(maniaMap), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "a.osu"), []byte("not a beatmap"), 0o644))

	n := NewOsuLoad()
	n.Input = root

	var sources []string
	err := n.Entry(context.Background(), func(b *Batch) error {
		sources = append(sources, b.Globals[GlobalSetName])
		return nil
	})
	require.NoError(t, err, "a broken set must not abort the walk")
	assert.Equal(t, []string{"good"}, sources)
}

func TestOsuLoadPrepareRejectsMissingInput(t *testing.T) {
	n := NewOsuLoad()
	assert.Error(t, n.Prepare())

	n.Input = filepath.Join(t.TempDir(), "nope")
	assert.Error(t, n.Prepare())
}
