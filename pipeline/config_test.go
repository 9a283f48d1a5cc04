package pipeline

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negamartin/osu2sm/chart"
)

func decodeNodes(t *testing.T, src string) NodeList {
	t.Helper()
	var doc struct {
		Node NodeList `toml:"node"`
	}
	require.NoError(t, toml.Unmarshal([]byte(src), &doc))
	return doc.Node
}

func TestDecodeNodeGraph(t *testing.T) {
	nodes := decodeNodes(t, `
[[node]]
kind = "OsuLoad"
input = "/osu/Songs"

[[node]]
kind = "Remap"
gamemode = "dance-single"
avoid_shuffle = false

[[node]]
kind = "Select"
from = "rated"
max = 3
dedup_dist = 0.5

[[node]]
kind = "SimfileWrite"
output = "/stepmania/Songs"
`)
	require.Len(t, nodes, 4)

	load, ok := nodes[0].(*OsuLoad)
	require.True(t, ok)
	assert.Equal(t, "/osu/Songs", load.Input)

	remap, ok := nodes[1].(*Remap)
	require.True(t, ok)
	assert.Equal(t, chart.DanceSingle, remap.Gamemode)
	assert.False(t, remap.AvoidShuffle)

	sel, ok := nodes[2].(*Select)
	require.True(t, ok)
	assert.Equal(t, `"rated"`, sel.From.String())
	assert.Equal(t, 3, sel.Max)
	assert.Equal(t, 0.5, sel.DedupDist)

	write, ok := nodes[3].(*SimfileWrite)
	require.True(t, ok)
	assert.Equal(t, "/stepmania/Songs", write.Output)
}

func TestDecodeNodeKindIsCaseInsensitive(t *testing.T) {
	nodes := decodeNodes(t, `
[[node]]
kind = "remap"
`)
	require.Len(t, nodes, 1)
	_, ok := nodes[0].(*Remap)
	assert.True(t, ok)
}

func TestDecodeRouteStrings(t *testing.T) {
	nodes := decodeNodes(t, `
[[node]]
kind = "Pipe"
from = "work"
into = "null"
`)
	require.Len(t, nodes, 1)
	p := nodes[0].(*PipeNode)
	assert.Equal(t, `"work"`, p.From.String())
	assert.Equal(t, "Null", p.Into.String())
}

func TestDecodeChainRoute(t *testing.T) {
	nodes := decodeNodes(t, `
[[node]]
kind = "Pipe"
from = "src"

  [node.into]

    [[node.into.chain]]
    kind = "Align"
    grid = 0.125

    [[node.into.chain]]
    kind = "Simultaneous"
    max = 3
`)
	require.Len(t, nodes, 1)
	p := nodes[0].(*PipeNode)

	resolved, err := ResolveBuckets(NodeList{p})
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	align, ok := resolved[1].(*Align)
	require.True(t, ok)
	assert.Equal(t, 0.125, align.Grid)
	sim, ok := resolved[2].(*Simultaneous)
	require.True(t, ok)
	assert.Equal(t, 3, sim.Max)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	var doc struct {
		Node NodeList `toml:"node"`
	}
	err := toml.Unmarshal([]byte("[[node]]\nkind = \"Frobnicate\"\n"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node kind")
}

func TestDecodeRejectsMissingKind(t *testing.T) {
	var doc struct {
		Node NodeList `toml:"node"`
	}
	err := toml.Unmarshal([]byte("[[node]]\ninput = \"x\"\n"), &doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}
