package smfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceFileCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "audio.mp3")
	dst := filepath.Join(dir, "out", "audio.mp3")
	require.NoError(t, os.WriteFile(src, []byte("sound"), 0o644))

	require.NoError(t, PlaceFile(src, dst, []CopyStrategy{StrategyCopy}))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("sound"), got)
}

func TestPlaceFileKeepsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.jpg")
	dst := filepath.Join(dir, "old.jpg")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	require.NoError(t, PlaceFile(src, dst, DefaultCopyStrategies))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got, "existing files are never overwritten")
}

func TestPlaceFileFallsBackAcrossStrategies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bg.png")
	dst := filepath.Join(dir, "songs", "bg.png")
	require.NoError(t, os.WriteFile(src, []byte("img"), 0o644))

	// Hardlinking usually works inside one directory, so this mostly
	// exercises the first strategy; either way the file must land.
	require.NoError(t, PlaceFile(src, dst, DefaultCopyStrategies))
	_, err := os.Stat(dst)
	assert.NoError(t, err)
}

func TestPlaceFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := PlaceFile(filepath.Join(dir, "gone.mp3"), filepath.Join(dir, "x.mp3"), DefaultCopyStrategies)
	assert.Error(t, err)
}

func TestParseCopyStrategy(t *testing.T) {
	s, err := ParseCopyStrategy("hardlink")
	require.NoError(t, err)
	assert.Equal(t, StrategyHardlink, s)

	_, err = ParseCopyStrategy("teleport")
	assert.Error(t, err)
}
