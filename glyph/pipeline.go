// Package glyph implements the GPU instance pipeline: turning the layout
// cache's visible glyphs, merged with syntax-overlay styling, into a
// viewport-culled stream of GPU instances (spec §4.7).
package glyph

import (
	"image"

	"gioui.org/f32"
	"gioui.org/op/clip"

	"github.com/foldspan/doctree/layout"
	"github.com/foldspan/doctree/viewport"
)

// Instance is one GPU-ready glyph (spec §3/§4.7 "GlyphInstance").
type Instance struct {
	PhysicalPos f32.Point
	TexCoords   [4]float32 // minX, minY, maxX, maxY
	TokenID     int
	Underline   bool
	Strikethrough bool
	AtlasIndex  int
}

// cacheKey identifies the parameters an emitted instance stream depends
// on; matching keys let the pipeline translate instead of re-emit (spec
// §4.7 step 5).
type cacheKey struct {
	layoutVersion int64
	scrollX       float32
	scrollY       float32
	boundsMinX    float32
	boundsMinY    float32
	boundsW       float32
	boundsH       float32
	padding       float32
	scale         float32
}

// Pipeline is the glyph pipeline: spec §4.7's contract.
type Pipeline struct {
	cached    []Instance
	cacheKey  cacheKey
	hasCached bool
	scissor   f32.Rectangle
}

// StyleFunc resolves a byte offset to a token id, typically
// syntax.Overlay.StyleAt.
type StyleFunc func(byteOffset int64) int

// Emit produces the GPU instance stream for vp given the current layout
// cache (spec §4.7 steps 1-4). Each full emit resolves every visible
// glyph's token id through styleAt; token ids are not cached on the
// glyphs between calls. lineHeight feeds the scissor margin. The returned
// slice is the Pipeline's own cache: a later scroll-only Emit translates
// it in place.
func (p *Pipeline) Emit(cache *layout.Cache, vp viewport.Viewport, styleAt StyleFunc, lineHeight float32) []Instance {
	key := cacheKey{
		layoutVersion: cache.LayoutVersion(),
		scrollX:       vp.Scroll.X,
		scrollY:       vp.Scroll.Y,
		boundsMinX:    vp.Bounds.Min.X,
		boundsMinY:    vp.Bounds.Min.Y,
		boundsW:       vp.Bounds.Dx(),
		boundsH:       vp.Bounds.Dy(),
		padding:       vp.Padding,
		scale:         vp.Scale.PxPerDp,
	}

	if p.hasCached && p.cacheKey.layoutVersion == key.layoutVersion &&
		p.cacheKey.boundsMinX == key.boundsMinX && p.cacheKey.boundsMinY == key.boundsMinY &&
		p.cacheKey.boundsW == key.boundsW && p.cacheKey.boundsH == key.boundsH &&
		p.cacheKey.padding == key.padding && p.cacheKey.scale == key.scale {
		// Only scroll changed (step 5's hot path): translate in place
		// rather than re-emitting or re-resolving styles.
		dx := (p.cacheKey.scrollX - key.scrollX) * vp.Scale.PxPerDp
		dy := (p.cacheKey.scrollY - key.scrollY) * vp.Scale.PxPerDp
		for i := range p.cached {
			p.cached[i].PhysicalPos.X += dx
			p.cached[i].PhysicalPos.Y += dy
		}
		p.cacheKey = key
		p.scissor = vp.ScissorRect(lineHeight)
		return p.cached
	}

	first, last := cache.UpdateVisibleRange(vp)
	glyphs := cache.VisibleGlyphsWithStyle(first, last, styleAt)

	out := make([]Instance, 0, len(glyphs))
	for _, g := range glyphs {
		pos := viewport.LayoutPos{X: g.LayoutX, Y: g.LayoutY}
		if !vp.Contains(pos) {
			continue
		}
		out = append(out, Instance{
			PhysicalPos:   vp.LayoutToPhysical(pos),
			TexCoords:     [4]float32{g.TexCoords.TexCoordsMinX, g.TexCoords.TexCoordsMinY, g.TexCoords.TexCoordsMaxX, g.TexCoords.TexCoordsMaxY},
			TokenID:       g.TokenID,
			Underline:     g.Underline,
			Strikethrough: g.Strikethrough,
			AtlasIndex:    g.AtlasIndex,
		})
	}

	p.cached = out
	p.cacheKey = key
	p.hasCached = true
	p.scissor = vp.ScissorRect(lineHeight)
	return out
}

// Scissor returns the physical-pixel rectangle the GPU should clip
// against, valid after the most recent Emit call.
func (p *Pipeline) Scissor() f32.Rectangle { return p.scissor }

// ScissorOp builds the clip operation for Scissor, for callers that draw
// with gioui.org/op directly.
func (p *Pipeline) ScissorOp() clip.Op {
	r := p.scissor
	return clip.Rect{
		Min: image.Pt(int(r.Min.X), int(r.Min.Y)),
		Max: image.Pt(int(r.Max.X), int(r.Max.Y)),
	}.Op()
}
