package fontshape

import "errors"

// ErrNoAtlas is returned by TypesettingProvider.Rasterize when no
// AtlasFunc was supplied at construction.
var ErrNoAtlas = errors.New("fontshape: no atlas function configured")

// clusterMap is the reference ClusterMap, built once per Shape call from
// the glyph list's cluster bytes. It supports both directions named in
// spec §6: ligatures, where several source bytes collapse into a single
// glyph's cluster, and complex clusters, where one source byte produces
// several glyphs sharing a cluster byte.
type clusterMap struct {
	glyphs   []ShapedGlyph
	textSize int64
}

func newClusterMap(glyphs []ShapedGlyph, textSize int64) *clusterMap {
	return &clusterMap{glyphs: glyphs, textSize: textSize}
}

// GlyphForByte implements ClusterMap.
func (m *clusterMap) GlyphForByte(byteOffset int64) (int, bool) {
	idx := -1
	for i, g := range m.glyphs {
		if g.ClusterByte <= byteOffset {
			idx = i
		} else {
			break
		}
	}
	if idx == -1 {
		return 0, false
	}
	leading := m.glyphs[idx].ClusterByte == byteOffset
	return idx, leading
}

// ByteRangeForGlyph implements ClusterMap.
func (m *clusterMap) ByteRangeForGlyph(glyphIndex int) (int64, int64) {
	if glyphIndex < 0 || glyphIndex >= len(m.glyphs) {
		return 0, 0
	}
	start := m.glyphs[glyphIndex].ClusterByte
	end := m.textSize
	for i := glyphIndex + 1; i < len(m.glyphs); i++ {
		if m.glyphs[i].ClusterByte != start {
			end = m.glyphs[i].ClusterByte
			break
		}
	}
	return start, end
}
