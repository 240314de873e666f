package fontshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLigatureClusterHitTest covers spec §6's ligature direction: several
// source bytes (here, a 3-byte sequence "ffi" shaping into one glyph)
// collapsing to a single glyph's cluster.
func TestLigatureClusterHitTest(t *testing.T) {
	glyphs := []ShapedGlyph{
		{GlyphID: 1, ClusterByte: 0}, // "ffi" ligature, bytes [0,3)
		{GlyphID: 2, ClusterByte: 3}, // next glyph, bytes [3,4)
	}
	cm := newClusterMap(glyphs, 4)

	idx, leading := cm.GlyphForByte(1)
	assert.Equal(t, 0, idx)
	assert.False(t, leading, "byte 1 is mid-ligature, not the cluster's leading edge")

	start, end := cm.ByteRangeForGlyph(0)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(3), end)
}

// TestComplexClusterMultipleGlyphsPerByte covers the opposite direction:
// one source byte producing multiple glyphs sharing a cluster byte.
func TestComplexClusterMultipleGlyphsPerByte(t *testing.T) {
	glyphs := []ShapedGlyph{
		{GlyphID: 10, ClusterByte: 0}, // base glyph
		{GlyphID: 11, ClusterByte: 0}, // combining mark, same source byte
	}
	cm := newClusterMap(glyphs, 1)

	idx, leading := cm.GlyphForByte(0)
	assert.Equal(t, 1, idx, "GlyphForByte should resolve to the last glyph sharing the cluster")
	assert.True(t, leading)

	start, end := cm.ByteRangeForGlyph(0)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(1), end, "both glyphs share byte 0, so the range covers the whole source byte")
}

func TestGlyphForByteOutOfRange(t *testing.T) {
	cm := newClusterMap(nil, 0)
	_, ok := cm.GlyphForByte(0)
	assert.False(t, ok)
}
