// Package viewport defines the coordinate spaces and transforms spec §4.7
// and §8 need to go from document bytes to physical pixels: doc (byte
// offsets), layout (26.6 fixed-point shaped positions), view (scrolled,
// DIP-scale window-relative positions), and physical (device pixels).
package viewport

import (
	"math"

	"gioui.org/f32"
	"gioui.org/unit"
	"golang.org/x/image/math/fixed"
)

// LayoutPos is a position in layout space: the shaped-glyph coordinate
// system the layout cache emits GlyphPosition.LayoutX/LayoutY in.
type LayoutPos struct {
	X, Y fixed.Int26_6
}

// Viewport describes the visible window into the document in layout
// space: a scroll offset and a bounds rectangle, plus the device scale
// needed to reach physical pixels.
type Viewport struct {
	Scroll f32.Point
	Bounds f32.Rectangle
	Scale  unit.Metric
	// Padding expands Bounds on every side before culling; spec §4.7 requires at least
	// one line height of margin so partially-visible glyphs at the edges
	// are still emitted.
	Padding float32
}

// ToLayout converts a layout-space point to fixed.Point26_6.
func ToLayout(p f32.Point) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
}

// ToView converts a layout-space point to a view-space (scrolled,
// window-relative) point.
func (v Viewport) ToView(p LayoutPos) f32.Point {
	return f32.Point{
		X: float32(p.X) / 64,
		Y: float32(p.Y) / 64,
	}.Sub(v.Scroll)
}

// ToPhysical converts a view-space point to physical device pixels,
// applying bounds origin and scale factor in one step (spec §4.7 step 4).
func (v Viewport) ToPhysical(view f32.Point) f32.Point {
	scale := v.Scale.PxPerDp
	origin := v.Bounds.Min
	return f32.Point{
		X: (view.X + origin.X) * scale,
		Y: (view.Y + origin.Y) * scale,
	}
}

// LayoutToPhysical composes ToView and ToPhysical for a layout-space
// point, the common case in the glyph pipeline.
func (v Viewport) LayoutToPhysical(p LayoutPos) f32.Point {
	return v.ToPhysical(v.ToView(p))
}

// VisibleLayoutBounds returns the viewport's bounds expanded by Padding
// and re-expressed in layout space plus scroll, i.e. the region a glyph's
// layout position must intersect to survive culling (spec §4.7 step 2).
func (v Viewport) VisibleLayoutBounds() f32.Rectangle {
	return f32.Rectangle{
		Min: v.Scroll.Sub(f32.Point{X: v.Padding, Y: v.Padding}),
		Max: v.Scroll.Add(f32.Point{
			X: v.Bounds.Dx() + v.Padding,
			Y: v.Bounds.Dy() + v.Padding,
		}),
	}
}

// Contains reports whether a layout-space point falls within the
// viewport's visible (padded) bounds.
func (v Viewport) Contains(p LayoutPos) bool {
	b := v.VisibleLayoutBounds()
	x, y := float32(p.X)/64, float32(p.Y)/64
	return x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y
}

// ScissorRect returns the physical-pixel rectangle the GPU should clip
// drawing to: the viewport bounds, rounded outward to whole pixels, with
// a one-line safety margin (spec §4.7 "Scissor").
func (v Viewport) ScissorRect(lineHeight float32) f32.Rectangle {
	scale := v.Scale.PxPerDp
	margin := lineHeight * scale
	floor := func(f float32) float32 { return float32(math.Floor(float64(f))) }
	ceil := func(f float32) float32 { return float32(math.Ceil(float64(f))) }
	return f32.Rectangle{
		Min: f32.Point{X: floor(v.Bounds.Min.X*scale - margin), Y: floor(v.Bounds.Min.Y*scale - margin)},
		Max: f32.Point{X: ceil(v.Bounds.Max.X*scale + margin), Y: ceil(v.Bounds.Max.Y*scale + margin)},
	}
}
