package fontshape

import (
	"sort"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// TypesettingProvider is the reference Provider, backed by
// go-text/typesetting's HarfBuzz-derived shaper. It owns one loaded Face
// and shapes left-to-right Latin-script runs; a host wanting
// bidi/vertical text would layer that atop Shape's per-run results.
type TypesettingProvider struct {
	face  *font.Face
	shape shaping.HarfbuzzShaper

	atlas AtlasFunc
}

// AtlasFunc rasterizes glyphID at size into an atlas region. The core
// never rasterizes pixels itself (spec §6): it delegates through this
// caller-supplied hook, which is expected to insert into and return
// coordinates from a GPU-backed texture atlas.
type AtlasFunc func(glyphID GlyphID, size fixed.Int26_6, weight int) (AtlasRegion, error)

// NewTypesettingProvider wraps a loaded font.Face.
func NewTypesettingProvider(face *font.Face, atlas AtlasFunc) *TypesettingProvider {
	return &TypesettingProvider{face: face, atlas: atlas}
}

// Shape implements Provider.
func (p *TypesettingProvider) Shape(text []byte, size fixed.Int26_6, features Features) (ShapeResult, error) {
	runes := []rune(string(text))

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: 0, // left-to-right
		Face:      p.face,
		Size:      size,
	}
	if len(features) > 0 {
		input.FontFeatures = toFeatures(features)
	}

	out := p.shape.Shape(input)

	byteOffsets := runeByteOffsets(text, runes)

	glyphs := make([]ShapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = ShapedGlyph{
			GlyphID:     GlyphID(g.GlyphID),
			ClusterByte: byteOffsets[g.ClusterIndex],
			XOffset:     g.XOffset,
			YOffset:     g.YOffset,
			XAdvance:    g.XAdvance,
		}
	}

	return ShapeResult{
		Glyphs:  glyphs,
		Cluster: newClusterMap(glyphs, int64(len(text))),
		Advance: out.Advance,
	}, nil
}

// MetricsAt implements Provider.
func (p *TypesettingProvider) MetricsAt(size fixed.Int26_6) Metrics {
	m := p.face.FontHExtents()
	return Metrics{
		Ascent:     fixed.I(int(m.Ascender)).Mul(size) / fixed.I(1000),
		Descent:    fixed.I(int(-m.Descender)).Mul(size) / fixed.I(1000),
		Leading:    fixed.I(int(m.LineGap)).Mul(size) / fixed.I(1000),
		LineHeight: fixed.I(int(m.Ascender-m.Descender+m.LineGap)).Mul(size) / fixed.I(1000),
	}
}

// Rasterize implements Provider by delegating to the atlas hook supplied
// at construction; the core has no GPU texture of its own (spec §9:
// "global mutable state ... is not part of the core").
func (p *TypesettingProvider) Rasterize(id GlyphID, size fixed.Int26_6, weight int) (AtlasRegion, error) {
	if p.atlas == nil {
		return AtlasRegion{}, ErrNoAtlas
	}
	return p.atlas(id, size, weight)
}

// HitTest implements Provider by re-shaping lineText and returning the
// cluster byte whose glyph origin is nearest targetX.
func (p *TypesettingProvider) HitTest(lineText []byte, size fixed.Int26_6, targetX fixed.Int26_6) (int64, error) {
	result, err := p.Shape(lineText, size, nil)
	if err != nil {
		return 0, err
	}
	if len(result.Glyphs) == 0 {
		return 0, nil
	}
	var x fixed.Int26_6
	best := result.Glyphs[0].ClusterByte
	bestDist := abs26_6(targetX - x)
	for _, g := range result.Glyphs {
		if d := abs26_6(targetX - x); d < bestDist {
			bestDist = d
			best = g.ClusterByte
		}
		x += g.XAdvance
	}
	return best, nil
}

func abs26_6(v fixed.Int26_6) fixed.Int26_6 {
	if v < 0 {
		return -v
	}
	return v
}

func toFeatures(f Features) []shaping.FontFeature {
	out := make([]shaping.FontFeature, 0, len(f))
	for tag, on := range f {
		var v uint32
		if on {
			v = 1
		}
		out = append(out, shaping.FontFeature{Tag: mustTag(tag), Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func mustTag(s string) shaping.Tag {
	var b [4]byte
	copy(b[:], s)
	return shaping.Tag(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// runeByteOffsets returns, for each rune index in runes, the byte offset
// of that rune within the original text.
func runeByteOffsets(text []byte, runes []rune) []int64 {
	offsets := make([]int64, len(runes)+1)
	var b int64
	for i, r := range runes {
		offsets[i] = b
		b += int64(runeLen(r))
	}
	offsets[len(runes)] = int64(len(text))
	return offsets
}

func runeLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}
