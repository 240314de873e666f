// Package layout maintains the layout cache: an ordered array of shaped
// glyph positions kept incrementally up to date with tree edits (spec
// §4.5), plus a per-line index supporting viewport culling and
// hit-testing.
package layout

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/image/math/fixed"

	"github.com/foldspan/doctree"
	"github.com/foldspan/doctree/fontshape"
	"github.com/foldspan/doctree/viewport"
)

// ShapeContextBytes is how far past an edit's affected range re-shaping
// extends to pick up cross-cluster effects (spec §4.5 step 2 default).
const ShapeContextBytes = 256

// defaultGlyphWeight is the rasterization weight used for shaping that
// has no per-token style yet available (layout shapes ahead of the
// syntax overlay resolving token ids); matches a regular/400 weight.
const defaultGlyphWeight = 400

// GlyphPosition is one shaped glyph placed in layout space (spec §3).
type GlyphPosition struct {
	Char          rune
	ByteOffset    int64
	LayoutX       fixed.Int26_6
	LayoutY       fixed.Int26_6
	TexCoords     fontshape.AtlasRegion
	Advance       fixed.Int26_6
	Line          int64
	Column        int64
	TokenID       int
	Underline     bool
	Strikethrough bool
	AtlasIndex    int
}

// LineEntry is one line's extent in both the glyph array and layout
// space (spec §3 "LineCache").
type LineEntry struct {
	FirstGlyph int
	GlyphCount int
	MaxX       fixed.Int26_6
	Y          fixed.Int26_6
	ByteStart  int64
	ByteEnd    int64
}

// Cache is the layout cache: spec §4.5's public contract.
type Cache struct {
	glyphs []GlyphPosition
	lines  []LineEntry

	layoutVersion int64
	sourceVersion int64 // Doc.Version() this cache matches, or -1 if unset
	fontSize      fixed.Int26_6
	lineHeight    fixed.Int26_6
}

// NewCache returns an empty layout cache.
func NewCache(fontSize fixed.Int26_6) *Cache {
	return &Cache{sourceVersion: -1, fontSize: fontSize}
}

// LayoutVersion returns the monotonically increasing counter bumped on
// any change invalidating cached glyph positions or styles.
func (c *Cache) LayoutVersion() int64 { return c.layoutVersion }

// UpdateLayout refreshes the cache to match snapshot. If forceFull is
// false and the cache already holds glyphs from an earlier UpdateLayout,
// each of deltas is applied as an incremental re-shape instead of a full
// re-shape. UpdateLayout does not check that deltas lead from the cached
// snapshot to this one.
func (c *Cache) UpdateLayout(snapshot *doctree.Tree, version int64, font fontshape.Provider, deltas []doctree.EditDelta, forceFull bool) error {
	if forceFull || c.sourceVersion < 0 || len(c.glyphs) == 0 {
		return c.fullReshape(snapshot, version, font)
	}
	for _, d := range deltas {
		if err := c.incrementalReshape(snapshot, font, d); err != nil {
			return err
		}
	}
	c.sourceVersion = version
	c.layoutVersion++
	return nil
}

func (c *Cache) fullReshape(snapshot *doctree.Tree, version int64, font fontshape.Provider) error {
	c.glyphs = c.glyphs[:0]
	c.lines = c.lines[:0]

	lineCount := snapshot.LineCount() + 1
	var y fixed.Int26_6
	for line := int64(0); line < lineCount; line++ {
		start, ok := snapshot.LineToByte(line)
		if !ok {
			break
		}
		text, err := snapshot.LineAt(start)
		if err != nil {
			return err
		}
		if err := c.shapeLine(line, start, []byte(text), y, font); err != nil {
			return err
		}
		y += c.lineHeightOr(font)
	}

	c.sourceVersion = version
	c.layoutVersion++
	return nil
}

func (c *Cache) lineHeightOr(font fontshape.Provider) fixed.Int26_6 {
	if c.lineHeight != 0 {
		return c.lineHeight
	}
	m := font.MetricsAt(c.fontSize)
	c.lineHeight = m.LineHeight
	return c.lineHeight
}

// shapeLine shapes one line's text starting at byteStart and y, appending
// its glyphs and a LineEntry. line is the caller-assigned line index.
func (c *Cache) shapeLine(line, byteStart int64, text []byte, y fixed.Int26_6, font fontshape.Provider) error {
	result, err := font.Shape(text, c.fontSize, nil)
	if err != nil {
		return err
	}

	first := len(c.glyphs)
	var x fixed.Int26_6
	col := int64(0)
	for _, g := range result.Glyphs {
		region, err := font.Rasterize(g.GlyphID, c.fontSize, defaultGlyphWeight)
		if err != nil {
			return err
		}
		r, _ := utf8.DecodeRune(text[g.ClusterByte:])

		c.glyphs = append(c.glyphs, GlyphPosition{
			Char:       r,
			ByteOffset: byteStart + g.ClusterByte,
			LayoutX:    x + g.XOffset,
			LayoutY:    y + g.YOffset,
			TexCoords:  region,
			Advance:    g.XAdvance,
			Line:       line,
			Column:     col,
			AtlasIndex: region.AtlasIndex,
		})
		x += g.XAdvance
		col++
	}

	c.lines = append(c.lines, LineEntry{
		FirstGlyph: first,
		GlyphCount: len(c.glyphs) - first,
		MaxX:       x,
		Y:          y,
		ByteStart:  byteStart,
		ByteEnd:    byteStart + int64(len(text)),
	})
	return nil
}

// incrementalReshape applies one edit delta per spec §4.5's four-step
// algorithm: locate the first affected line, re-shape through the
// context boundary, translate subsequent lines' byte offsets, and
// re-shape forward if wrapping would change (soft wrap is out of scope
// here: the cache is single-line-per-document-line, so step 4 reduces to
// "no further action").
func (c *Cache) incrementalReshape(snapshot *doctree.Tree, font fontshape.Provider, d doctree.EditDelta) error {
	firstLine := c.lineIndexForByte(d.Pos)
	if firstLine < 0 {
		return c.fullReshape(snapshot, c.sourceVersion, font)
	}

	contextEnd := d.Pos + maxInt64(d.OldLen, d.NewLen) + ShapeContextBytes
	lastLine := firstLine
	for lastLine < len(c.lines)-1 && c.lines[lastLine].ByteEnd < contextEnd {
		lastLine++
	}

	// Re-derive affected lines' new text directly from the post-edit
	// snapshot, since the old cached byte ranges are now stale for
	// exactly the region we are about to replace.
	newLines, newGlyphs, err := c.reshapeRange(snapshot, font, firstLine, d)
	if err != nil {
		return err
	}
	base := firstGlyphOf(c.lines, firstLine)
	for i := range newLines {
		newLines[i].FirstGlyph += base
	}

	delta := d.NewLen - d.OldLen
	lineShift := int64(len(newLines)) - int64(lastLine-firstLine+1)
	yShift := fixed.Int26_6(lineShift) * c.lineHeightOr(font)
	tailLines := append([]LineEntry(nil), c.lines[lastLine+1:]...)
	for i := range tailLines {
		tailLines[i].ByteStart += delta
		tailLines[i].ByteEnd += delta
		tailLines[i].Y += yShift
	}

	var tailGlyphs []GlyphPosition
	if lastLine+1 < len(c.lines) {
		start := c.lines[lastLine+1].FirstGlyph
		tailGlyphs = append([]GlyphPosition(nil), c.glyphs[start:]...)
		for i := range tailGlyphs {
			tailGlyphs[i].ByteOffset += delta
			tailGlyphs[i].Line += lineShift
			tailGlyphs[i].LayoutY += yShift
		}
	}

	glyphOffset := base + len(newGlyphs) - firstGlyphOf(c.lines, lastLine+1)
	for i := range tailLines {
		tailLines[i].FirstGlyph += glyphOffset
	}

	c.glyphs = append(append(c.glyphs[:base], newGlyphs...), tailGlyphs...)
	c.lines = append(append(c.lines[:firstLine], newLines...), tailLines...)
	return nil
}

func firstGlyphOf(lines []LineEntry, line int) int {
	if line >= len(lines) {
		if len(lines) == 0 {
			return 0
		}
		last := lines[len(lines)-1]
		return last.FirstGlyph + last.GlyphCount
	}
	return lines[line].FirstGlyph
}

// reshapeRange re-shapes the document lines from firstLine through the
// line containing the byte ShapeContextBytes past the edit's new content
// (or the last line), against the post-edit snapshot, returning fresh
// LineEntry/GlyphPosition values with byte offsets and line indices
// already correct. LineEntry.FirstGlyph values count from 0 within the
// returned glyphs.
func (c *Cache) reshapeRange(snapshot *doctree.Tree, font fontshape.Provider, firstLine int, d doctree.EditDelta) ([]LineEntry, []GlyphPosition, error) {
	startByte, ok := snapshot.LineToByte(int64(firstLine))
	if !ok {
		return nil, nil, doctree.ErrInvalidPosition
	}
	endByte := d.Pos + d.NewLen + ShapeContextBytes
	if endByte > snapshot.ByteCount() {
		endByte = snapshot.ByteCount()
	}
	endLine, err := snapshot.ByteToLine(endByte)
	if err != nil {
		return nil, nil, err
	}

	var y fixed.Int26_6
	if firstLine > 0 && firstLine-1 < len(c.lines) {
		y = c.lines[firstLine-1].Y + c.lineHeightOr(font)
	}

	saved := &Cache{fontSize: c.fontSize, lineHeight: c.lineHeight}
	for line := int64(firstLine); line <= endLine; line++ {
		start, ok := snapshot.LineToByte(line)
		if !ok {
			break
		}
		text, err := snapshot.LineAt(start)
		if err != nil {
			return nil, nil, err
		}
		if err := saved.shapeLine(line, start, []byte(text), y, font); err != nil {
			return nil, nil, err
		}
		y += c.lineHeightOr(font)
	}
	return saved.lines, saved.glyphs, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// lineIndexForByte binary-searches the cached line index for the line
// covering byteOffset, or -1 if the cache holds no such line.
func (c *Cache) lineIndexForByte(byteOffset int64) int {
	i := sort.Search(len(c.lines), func(i int) bool { return c.lines[i].ByteEnd > byteOffset })
	if i >= len(c.lines) {
		return -1
	}
	return i
}

// UpdateVisibleRange recomputes which lines intersect the viewport given
// current scroll, returning their index range [first, last).
func (c *Cache) UpdateVisibleRange(vp viewport.Viewport) (first, last int) {
	top := vp.Scroll.Y
	bottom := vp.Scroll.Y + vp.Bounds.Max.Y - vp.Bounds.Min.Y

	first = sort.Search(len(c.lines), func(i int) bool {
		return float32(c.lines[i].Y+c.lineHeight)/64 >= float32(top)
	})
	last = sort.Search(len(c.lines), func(i int) bool {
		return float32(c.lines[i].Y)/64 > float32(bottom)
	})
	if last < first {
		last = first
	}
	return first, last
}

// VisibleGlyphsWithStyle returns the glyphs belonging to lines
// [firstLine, lastLine), each carrying its effective style resolved by
// styleAt (typically syntax.Overlay.StyleAt).
func (c *Cache) VisibleGlyphsWithStyle(firstLine, lastLine int, styleAt func(byteOffset int64) int) []GlyphPosition {
	if firstLine < 0 || firstLine >= len(c.lines) || lastLine <= firstLine {
		return nil
	}
	if lastLine > len(c.lines) {
		lastLine = len(c.lines)
	}
	start := c.lines[firstLine].FirstGlyph
	end := c.lines[lastLine-1].FirstGlyph + c.lines[lastLine-1].GlyphCount

	out := make([]GlyphPosition, end-start)
	copy(out, c.glyphs[start:end])
	if styleAt != nil {
		for i := range out {
			out[i].TokenID = styleAt(out[i].ByteOffset)
		}
	}
	return out
}

// GlyphAtLayout returns the glyph whose bounding box contains pos, or the
// nearest glyph, for hit-testing (spec §4.5).
func (c *Cache) GlyphAtLayout(pos viewport.LayoutPos) (GlyphPosition, bool) {
	line := sort.Search(len(c.lines), func(i int) bool { return c.lines[i].Y+c.lineHeight > pos.Y })
	if line >= len(c.lines) {
		if len(c.lines) == 0 {
			return GlyphPosition{}, false
		}
		line = len(c.lines) - 1
	}
	entry := c.lines[line]
	if entry.GlyphCount == 0 {
		return GlyphPosition{Line: int64(line), LayoutY: entry.Y}, true
	}
	for i := entry.FirstGlyph; i < entry.FirstGlyph+entry.GlyphCount; i++ {
		if g := c.glyphs[i]; pos.X >= g.LayoutX && pos.X < g.LayoutX+g.Advance {
			return g, true
		}
	}
	best := entry.FirstGlyph
	bestDist := abs(c.glyphs[best].LayoutX - pos.X)
	for i := entry.FirstGlyph + 1; i < entry.FirstGlyph+entry.GlyphCount; i++ {
		if d := abs(c.glyphs[i].LayoutX - pos.X); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return c.glyphs[best], true
}

func abs(v fixed.Int26_6) fixed.Int26_6 {
	if v < 0 {
		return -v
	}
	return v
}
