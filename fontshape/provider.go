// Package fontshape defines the font-provider interface the layout cache
// shapes text through (spec §6 "Font provider (consumed)"), plus a
// reference implementation backed by go-text/typesetting.
package fontshape

import "golang.org/x/image/math/fixed"

// GlyphID identifies a glyph within a Face's glyph index space.
type GlyphID uint32

// ShapedGlyph is one glyph produced by Shape, carrying its source-byte
// cluster and placement in 26.6 fixed-point layout units.
type ShapedGlyph struct {
	GlyphID     GlyphID
	ClusterByte int64 // byte offset of the cluster this glyph belongs to
	XOffset     fixed.Int26_6
	YOffset     fixed.Int26_6
	XAdvance    fixed.Int26_6
}

// ClusterMap answers byte<->glyph queries for a shaped run, representing
// both ligatures (many bytes -> one glyph) and complex clusters (one byte
// -> many glyphs), per spec §6.
type ClusterMap interface {
	// GlyphForByte returns the glyph index covering byteOffset and
	// whether byteOffset is that cluster's leading edge.
	GlyphForByte(byteOffset int64) (glyphIndex int, leadingEdge bool)
	// ByteRangeForGlyph returns the source byte range a glyph came from.
	ByteRangeForGlyph(glyphIndex int) (start, end int64)
}

// ShapeResult is the output of Shape: glyphs in visual order plus the
// cluster map tying them back to source bytes.
type ShapeResult struct {
	Glyphs  []ShapedGlyph
	Cluster ClusterMap
	Advance fixed.Int26_6
}

// Metrics describes a face's vertical measurements at a given size.
type Metrics struct {
	Ascent, Descent, Leading, LineHeight, SpaceWidth fixed.Int26_6
}

// AtlasRegion is where a rasterized glyph lives in the font provider's
// texture atlas.
type AtlasRegion struct {
	TexCoordsMinX, TexCoordsMinY float32
	TexCoordsMaxX, TexCoordsMaxY float32
	Width, Height                int
	BearingX, BearingY           int
	IsColor                      bool
	AtlasIndex                   int // which atlas page/array layer the region lives in
}

// Features selects OpenType feature tags (e.g. "liga", "kern") to enable
// during shaping; nil means the face's defaults.
type Features map[string]bool

// Provider rasterizes glyphs into an atlas and answers shaping queries
// (spec §6 "Font provider"). Implementations must be safe to call from
// the document-writer thread while the layout cache and glyph pipeline
// query them concurrently from the same thread (spec §5: the provider is
// "expected to be an internally-synchronized service").
type Provider interface {
	Shape(text []byte, size fixed.Int26_6, features Features) (ShapeResult, error)
	Rasterize(id GlyphID, size fixed.Int26_6, weight int) (AtlasRegion, error)
	MetricsAt(size fixed.Int26_6) Metrics
	// HitTest returns the byte offset of the glyph under targetX within a
	// line previously shaped with Shape.
	HitTest(lineText []byte, size fixed.Int26_6, targetX fixed.Int26_6) (int64, error)
}
