package doctree

// MaxSpans is the maximum number of spans in a leaf, and the maximum number
// of children in an internal node. Enforced by the rebalancer after every
// edit path (spec invariant 3).
const MaxSpans = 16

// MaxChunkBytes bounds a single text-run span so splits and merges stay
// cheap. Spans are not required to be exactly this size; it is a soft
// target enforced when spans are built or grown.
const MaxChunkBytes = 4 * 1024

// Widget is a caller-owned inline object embedded in the text stream. It
// occupies zero bytes of the document; the host resolves Ref at paint
// time. The core never interprets Ref.
type Widget struct {
	// Width and Height are the widget's intrinsic size in layout units.
	Width, Height float64
	// Ref is an opaque reference the plugin/GPU host resolves. The core
	// never dereferences or compares it beyond identity.
	Ref any
}

// span is the leaf unit of the tree: either a text run or an inline
// widget. Exactly one of data/widget is meaningful, selected by isWidget.
// A span is immutable once it is reachable from a published snapshot.
type span struct {
	isWidget bool

	// data holds UTF-8 bytes for a text run. Never split inside a code
	// point boundary, and len(data) <= MaxChunkBytes by construction.
	data []byte

	// widget holds the inline object for a widget span.
	widget Widget

	// summary caches this span's contribution so node summaries can be
	// recomputed by addition without re-scanning bytes.
	summary Summary
}

func newTextSpan(data []byte) span {
	return span{data: data, summary: summarizeText(data)}
}

func newWidgetSpan(w Widget) span {
	return span{isWidget: true, widget: w, summary: Summary{Widgets: 1}}
}

// splitAt splits a text span at the given local byte offset into two
// spans. Callers must ensure off is on a code-point boundary and
// 0 <= off <= len(data); widget spans cannot be split.
func (s span) splitAt(off int) (left, right span) {
	left = newTextSpan(s.data[:off:off])
	right = newTextSpan(s.data[off:])
	return left, right
}
