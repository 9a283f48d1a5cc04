package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/pipeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, path, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	assert.Equal(t, uint64(0), cfg.Seed)
	assert.Equal(t, 0, cfg.Parallelism)
	assert.True(t, cfg.Permissive)
	assert.Equal(t, 1, cfg.Log.Verbosity)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	cfg, _, err := Load(writeConfig(t, `
seed = 42
parallelism = 4
permissive = false

[log]
verbosity = 2
json = true
`))
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.False(t, cfg.Permissive)
	assert.Equal(t, 2, cfg.Log.Verbosity)
	assert.True(t, cfg.Log.JSON)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OSU2SM_PARALLELISM", "8")
	cfg, _, err := Load(writeConfig(t, "parallelism = 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Parallelism)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadNodes(t *testing.T) {
	path := writeConfig(t, `
seed = 7

[[node]]
kind = "OsuLoad"
input = "/osu/Songs"

[[node]]
kind = "SimfileWrite"
output = "/sm/Songs"
`)
	nodes, err := LoadNodes(path)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	_, ok := nodes[0].(*pipeline.OsuLoad)
	assert.True(t, ok)
	_, ok = nodes[1].(*pipeline.SimfileWrite)
	assert.True(t, ok)
}

func TestLoadNodesRequiresPath(t *testing.T) {
	_, err := LoadNodes("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file")
}

func TestLoadNodesRejectsEmptyGraph(t *testing.T) {
	_, err := LoadNodes(writeConfig(t, "seed = 7\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no [[node]] tables")
}

func TestFindProjectConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	cfgPath := filepath.Join(root, ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o644))

	t.Chdir(sub)
	found := FindProjectConfig()
	// Resolve symlinks so macOS /tmp vs /private/tmp compares equal.
	wantReal, err := filepath.EvalSymlinks(cfgPath)
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, wantReal, gotReal)
}
