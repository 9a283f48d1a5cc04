package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelClassification(t *testing.T) {
	cfgErr := NewConfigError("node %d references unknown bucket %q", 3, "rated")
	require.Error(t, cfgErr)
	assert.True(t, IsConfigError(cfgErr))
	assert.False(t, IsTransformError(cfgErr))
	assert.False(t, IsCollaboratorError(cfgErr))

	trErr := NewTransformError("requested %d columns from %d candidates", 5, 4)
	assert.True(t, IsTransformError(trErr))
	assert.False(t, IsConfigError(trErr))
}

func TestWrappingPreservesClass(t *testing.T) {
	err := NewTransformError("chart below minimum keycount")
	wrapped := Wrap(err, "while remapping")
	assert.True(t, IsTransformError(wrapped))
	assert.Contains(t, wrapped.Error(), "while remapping")
}

func TestWrapCollaboratorCarriesSource(t *testing.T) {
	parseErr := New("unexpected end of section")
	err := WrapCollaborator(parseErr, "songs/123456 artist - title")
	assert.True(t, IsCollaboratorError(err))
	assert.Contains(t, err.Error(), "songs/123456")
}

func TestNilIsNoClass(t *testing.T) {
	assert.False(t, IsConfigError(nil))
	assert.False(t, IsTransformError(nil))
	assert.False(t, IsCollaboratorError(nil))
	assert.False(t, IsModeMismatch(nil))
}
