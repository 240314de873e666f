package glyph

import (
	"testing"

	"gioui.org/f32"
	"gioui.org/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"

	"github.com/foldspan/doctree"
	"github.com/foldspan/doctree/fontshape"
	"github.com/foldspan/doctree/layout"
	"github.com/foldspan/doctree/viewport"
)

// fakeFont is a monospace Provider stub, mirroring layout's own test
// double: one glyph per rune, fixed advance, so pipeline tests can assert
// exact instance positions without a real shaper.
type fakeFont struct {
	advance fixed.Int26_6
	height  fixed.Int26_6
}

func (f fakeFont) Shape(text []byte, size fixed.Int26_6, features fontshape.Features) (fontshape.ShapeResult, error) {
	var glyphs []fontshape.ShapedGlyph
	var x fixed.Int26_6
	for i, r := range string(text) {
		glyphs = append(glyphs, fontshape.ShapedGlyph{
			GlyphID:     fontshape.GlyphID(r),
			ClusterByte: int64(i),
			XAdvance:    f.advance,
		})
		x += f.advance
	}
	return fontshape.ShapeResult{Glyphs: glyphs, Advance: x}, nil
}

func (f fakeFont) Rasterize(id fontshape.GlyphID, size fixed.Int26_6, weight int) (fontshape.AtlasRegion, error) {
	return fontshape.AtlasRegion{}, nil
}

func (f fakeFont) MetricsAt(size fixed.Int26_6) fontshape.Metrics {
	return fontshape.Metrics{LineHeight: f.height}
}

func (f fakeFont) HitTest(lineText []byte, size fixed.Int26_6, targetX fixed.Int26_6) (int64, error) {
	col := int64(targetX / f.advance)
	if col < 0 {
		col = 0
	}
	return col, nil
}

func newFakeFont() fakeFont {
	return fakeFont{advance: fixed.I(10), height: fixed.I(20)}
}

func newViewport() viewport.Viewport {
	return viewport.Viewport{
		Bounds: f32.Rectangle{Max: f32.Point{X: 200, Y: 200}},
		Scale:  unit.Metric{PxPerDp: 1},
	}
}

func buildCache(t *testing.T) *layout.Cache {
	t.Helper()
	snapshot := doctree.FromText("hello world")
	cache := layout.NewCache(fixed.I(12))
	require.NoError(t, cache.UpdateLayout(snapshot, 0, newFakeFont(), nil, true))
	return cache
}

func noStyle(int64) int { return 0 }

// TestScrollFastPath covers spec §4.7 step 5: a scroll-only viewport
// change must translate the previously emitted instances rather than
// re-resolving styles or re-culling from the layout cache.
func TestScrollFastPath(t *testing.T) {
	cache := buildCache(t)
	vp := newViewport()

	var p Pipeline
	// Copy the first stream: the scroll-only Emit below translates the
	// pipeline's cached slice in place.
	first := append([]Instance(nil), p.Emit(cache, vp, noStyle, 20)...)
	require.NotEmpty(t, first)

	vp.Scroll = f32.Point{X: 0, Y: 5}
	second := p.Emit(cache, vp, noStyle, 20)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].PhysicalPos.Y-5, second[i].PhysicalPos.Y,
			"scroll-only emit should translate, not re-resolve, cached positions")
	}
}

func TestEmitReResolvesAfterLayoutVersionChanges(t *testing.T) {
	font := newFakeFont()
	snapshot := doctree.FromText("hello world")
	cache := layout.NewCache(fixed.I(12))
	require.NoError(t, cache.UpdateLayout(snapshot, 0, font, nil, true))
	vp := newViewport()

	var p Pipeline
	first := p.Emit(cache, vp, noStyle, 20)
	require.NotEmpty(t, first)

	next, deltas, err := snapshot.Apply([]doctree.Edit{doctree.InsertText(5, []byte("!!!"))})
	require.NoError(t, err)
	require.NoError(t, cache.UpdateLayout(next, 1, font, deltas, false))

	second := p.Emit(cache, vp, noStyle, 20)
	assert.NotEqual(t, len(first), len(second), "inserted text should change the emitted instance count")
}

func TestEmitCullsGlyphsOutsideBounds(t *testing.T) {
	cache := buildCache(t)
	vp := newViewport()
	vp.Bounds = f32.Rectangle{Max: f32.Point{X: 15, Y: 15}}

	var p Pipeline
	instances := p.Emit(cache, vp, noStyle, 20)

	full := newViewport()
	var q Pipeline
	fullInstances := q.Emit(cache, full, noStyle, 20)

	assert.Less(t, len(instances), len(fullInstances), "a narrow viewport should cull most glyphs")
}

func TestEmitAppliesStyleFunc(t *testing.T) {
	cache := buildCache(t)
	vp := newViewport()

	var p Pipeline
	instances := p.Emit(cache, vp, func(int64) int { return 9 }, 20)
	require.NotEmpty(t, instances)
	for _, inst := range instances {
		assert.Equal(t, 9, inst.TokenID)
	}
}

func TestScissorOpBuildsFromScissorRect(t *testing.T) {
	cache := buildCache(t)
	vp := newViewport()

	var p Pipeline
	p.Emit(cache, vp, noStyle, 20)

	rect := p.Scissor()
	assert.NotEqual(t, f32.Rectangle{}, rect)

	assert.NotPanics(t, func() { p.ScissorOp() })
}
