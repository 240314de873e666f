package doctree

import (
	"bytes"

	"github.com/rivo/uniseg"
)

// Tree is a persistent, balanced, sum-indexed sequence of text and widget
// spans (spec §3, §4.1). All Tree values are immutable; Apply returns a
// new Tree sharing unchanged structure with the receiver.
type Tree struct {
	root *node
}

// emptyTree is shared by every Doc started with no content.
var emptyTree = &Tree{root: leafNode(nil)}

// FromText builds a tree containing s as a single chain of text leaves.
func FromText(s string) *Tree {
	return FromBytes([]byte(s))
}

// FromBytes builds a tree containing data as a single chain of text leaves.
func FromBytes(data []byte) *Tree {
	if len(data) == 0 {
		return emptyTree
	}
	return &Tree{root: buildNodesFromSpans(chunkText(data))}
}

// chunkText splits data into text spans no larger than MaxChunkBytes,
// never inside a UTF-8 code point.
func chunkText(data []byte) []span {
	spans := make([]span, 0, (len(data)+MaxChunkBytes-1)/MaxChunkBytes)
	for len(data) > 0 {
		n := MaxChunkBytes
		if n > len(data) {
			n = len(data)
		}
		for n < len(data) && isUTF8Continuation(data[n]) {
			n--
		}
		spans = append(spans, newTextSpan(data[:n:n]))
		data = data[n:]
	}
	return spans
}

func isUTF8Continuation(b byte) bool { return b&0xC0 == 0x80 }

// ByteCount returns the text byte count. O(1): read from the root summary.
func (t *Tree) ByteCount() int64 { return t.root.summary.Bytes }

// LineCount returns the number of '\n' bytes in the tree (spec testable
// property 2; "line_count" counts newlines, not visual lines).
func (t *Tree) LineCount() int64 { return t.root.summary.Newlines }

// CharCount returns the Unicode scalar value count. O(1).
func (t *Tree) CharCount() int64 { return t.root.summary.Chars }

// WidgetCount returns the number of inline-widget spans. O(1).
func (t *Tree) WidgetCount() int64 { return t.root.summary.Widgets }

// LineToByte returns the byte offset of the first character of line L
// (0-indexed). ok is false if L is negative or L >= LineCount()+1.
func (t *Tree) LineToByte(line int64) (pos int64, ok bool) {
	if line < 0 || line > t.LineCount() {
		return 0, false
	}
	if line == 0 {
		return 0, true
	}
	return byteAfterNthNewline(t.root, 0, line)
}

// byteAfterNthNewline returns the byte offset just past the nth (1-indexed)
// newline under n, given n begins at absolute offset nodeStart.
func byteAfterNthNewline(nd *node, nodeStart, nth int64) (int64, bool) {
	if nth > nd.summary.Newlines {
		return 0, false
	}
	if nd.isLeaf {
		running := nodeStart
		var seen int64
		for _, sp := range nd.spans {
			if sp.isWidget {
				continue
			}
			for i, b := range sp.data {
				if b == '\n' {
					seen++
					if seen == nth {
						return running + int64(i) + 1, true
					}
				}
			}
			running += sp.summary.Bytes
		}
		return 0, false
	}
	running := nodeStart
	remaining := nth
	for _, c := range nd.children {
		if remaining <= c.summary.Newlines {
			return byteAfterNthNewline(c, running, remaining)
		}
		remaining -= c.summary.Newlines
		running += c.summary.Bytes
	}
	return 0, false
}

// ByteToLine returns the line index (count of '\n' strictly before b)
// containing byte b.
func (t *Tree) ByteToLine(b int64) (int64, error) {
	if b < 0 || b > t.ByteCount() {
		return 0, ErrInvalidPosition
	}
	return newlinesBefore(t.root, 0, b), nil
}

func newlinesBefore(nd *node, nodeStart, pos int64) int64 {
	nodeEnd := nodeStart + nd.summary.Bytes
	if pos >= nodeEnd {
		return nd.summary.Newlines
	}
	if pos <= nodeStart {
		return 0
	}
	if nd.isLeaf {
		var count int64
		running := nodeStart
		for _, sp := range nd.spans {
			spEnd := running + sp.summary.Bytes
			if sp.isWidget {
				running = spEnd
				continue
			}
			if spEnd <= pos {
				count += sp.summary.Newlines
			} else if running < pos {
				count += int64(bytes.Count(sp.data[:pos-running], []byte{'\n'}))
			}
			running = spEnd
		}
		return count
	}
	var count int64
	childStart := nodeStart
	for _, c := range nd.children {
		count += newlinesBefore(c, childStart, pos)
		childStart += c.summary.Bytes
	}
	return count
}

// FindNextNewline returns the nearest newline strictly after b.
func (t *Tree) FindNextNewline(b int64) (int64, bool, error) {
	if b < 0 || b > t.ByteCount() {
		return 0, false, ErrInvalidPosition
	}
	pos, ok := firstNewlineAfter(t.root, 0, b)
	return pos, ok, nil
}

func firstNewlineAfter(nd *node, nodeStart, pos int64) (int64, bool) {
	nodeEnd := nodeStart + nd.summary.Bytes
	if nd.summary.Newlines == 0 || nodeEnd <= pos {
		return 0, false
	}
	if nd.isLeaf {
		running := nodeStart
		for _, sp := range nd.spans {
			if !sp.isWidget {
				for i, b := range sp.data {
					abs := running + int64(i)
					if b == '\n' && abs > pos {
						return abs, true
					}
				}
			}
			running += sp.summary.Bytes
		}
		return 0, false
	}
	running := nodeStart
	for _, c := range nd.children {
		if found, ok := firstNewlineAfter(c, running, pos); ok {
			return found, true
		}
		running += c.summary.Bytes
	}
	return 0, false
}

// FindPrevNewline returns the nearest newline strictly before b.
func (t *Tree) FindPrevNewline(b int64) (int64, bool, error) {
	if b < 0 || b > t.ByteCount() {
		return 0, false, ErrInvalidPosition
	}
	pos, ok := lastNewlineBefore(t.root, 0, b)
	return pos, ok, nil
}

func lastNewlineBefore(nd *node, nodeStart, pos int64) (int64, bool) {
	if nd.summary.Newlines == 0 || nodeStart >= pos {
		return 0, false
	}
	if nd.isLeaf {
		running := nodeStart
		best := int64(-1)
		for _, sp := range nd.spans {
			if !sp.isWidget {
				for i, b := range sp.data {
					abs := running + int64(i)
					if b == '\n' && abs < pos {
						best = abs
					}
				}
			}
			running += sp.summary.Bytes
		}
		if best >= 0 {
			return best, true
		}
		return 0, false
	}
	running := nodeStart
	best := int64(-1)
	found := false
	for _, c := range nd.children {
		if pos, ok := lastNewlineBefore(c, running, pos); ok {
			best, found = pos, true
		}
		running += c.summary.Bytes
	}
	return best, found
}

// Slice returns the text bytes in r as a string. Widgets in the range
// contribute nothing: they occupy zero bytes.
func (t *Tree) Slice(r ByteRange) (string, error) {
	if r.Start < 0 || r.End < r.Start || r.End > t.ByteCount() {
		return "", ErrInvalidPosition
	}
	var buf []byte
	sliceBytes(t.root, 0, r.Start, r.End, &buf)
	return string(buf), nil
}

func sliceBytes(nd *node, nodeStart, start, end int64, out *[]byte) {
	nodeEnd := nodeStart + nd.summary.Bytes
	if end <= nodeStart || start >= nodeEnd {
		return
	}
	if nd.isLeaf {
		running := nodeStart
		for _, sp := range nd.spans {
			spEnd := running + sp.summary.Bytes
			if !sp.isWidget && spEnd > start && running < end {
				lo, hi := int64(0), sp.summary.Bytes
				if running < start {
					lo = start - running
				}
				if spEnd > end {
					hi = end - running
				}
				*out = append(*out, sp.data[lo:hi]...)
			}
			running = spEnd
		}
		return
	}
	childStart := nodeStart
	for _, c := range nd.children {
		sliceBytes(c, childStart, start, end, out)
		childStart += c.summary.Bytes
	}
}

// LineAt returns the text of the entire line containing byte b, including
// its trailing newline if one terminates the line.
func (t *Tree) LineAt(b int64) (string, error) {
	line, err := t.ByteToLine(b)
	if err != nil {
		return "", err
	}
	start, ok := t.LineToByte(line)
	if !ok {
		return "", ErrInternal
	}
	end := t.ByteCount()
	// Search from start-1 so a line that is itself just "\n" ends at its
	// own newline.
	if nl, found := firstNewlineAfter(t.root, 0, start-1); found {
		end = nl + 1
	}
	return t.Slice(ByteRange{start, end})
}

// ColumnAt returns the 0-indexed grapheme-cluster column of pos within its
// line: spec §4.1 counts columns in extended grapheme clusters (what a
// user perceives as one character) rather than bytes or runes, even
// though every other Tree query works in raw byte offsets internally.
func (t *Tree) ColumnAt(pos int64) (int64, error) {
	line, err := t.ByteToLine(pos)
	if err != nil {
		return 0, err
	}
	lineStart, ok := t.LineToByte(line)
	if !ok {
		return 0, ErrInternal
	}
	prefix, err := t.Slice(ByteRange{lineStart, pos})
	if err != nil {
		return 0, err
	}

	var col int64
	state := -1
	for len(prefix) > 0 {
		_, rest, _, newState := uniseg.FirstGraphemeClusterInString(prefix, state)
		prefix = rest
		state = newState
		col++
	}
	return col, nil
}

// isByteBoundary reports whether pos lies on a UTF-8 code point boundary.
func (t *Tree) isByteBoundary(pos int64) bool {
	total := t.ByteCount()
	if pos < 0 || pos > total {
		return false
	}
	if pos == 0 || pos == total {
		return true
	}
	var buf []byte
	sliceBytes(t.root, 0, pos, pos+1, &buf)
	if len(buf) == 0 {
		return true
	}
	return !isUTF8Continuation(buf[0])
}

// Apply applies edits in order, returning the resulting tree, the list of
// edit deltas produced (one per edit, in the tree's own byte space at the
// moment each edit was applied), and the first validation error
// encountered. On error the original edits have no effect: Apply never
// returns a partially-applied tree.
func (t *Tree) Apply(edits []Edit) (result *Tree, deltas []EditDelta, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				result, deltas, err = nil, nil, e
				return
			}
			panic(r)
		}
	}()

	cur := t
	out := make([]EditDelta, 0, len(edits))
	for _, e := range edits {
		next, delta, applyErr := cur.applyOne(e)
		if applyErr != nil {
			return nil, nil, applyErr
		}
		cur = next
		out = append(out, delta)
	}
	return cur, out, nil
}

func (t *Tree) applyOne(e Edit) (*Tree, EditDelta, error) {
	total := t.ByteCount()

	var start, end int64
	switch e.Kind {
	case EditInsert:
		start, end = e.Pos, e.Pos
	default:
		start, end = e.Range.Start, e.Range.End
	}

	if start < 0 || end < start || end > total {
		return nil, EditDelta{}, ErrInvalidEdit
	}
	if !t.isByteBoundary(start) || !t.isByteBoundary(end) {
		return nil, EditDelta{}, ErrInvalidEdit
	}

	insert := e.spans()

	path, target, targetStart := locateEnclosing(t.root, start, end)
	localStart, localEnd := start-targetStart, end-targetStart

	flat := flattenSpans(target)
	newFlat := spliceSpans(flat, localStart, localEnd, insert)
	rebuilt := buildNodesFromSpans(newFlat)
	newRoot := spliceBack(path, rebuilt)

	return &Tree{root: newRoot}, deltaOf(e), nil
}

// spliceSpans rebuilds a flat span list with [start, end) removed and
// insert spliced in at start. Both boundaries are first made exact (no
// span straddles them) so the replace logic only has to classify whole
// spans as before/inside/after the removed range.
func spliceSpans(spans []span, start, end int64, insert []span) []span {
	spans = trimAtBoundary(spans, start)
	spans = trimAtBoundary(spans, end)

	out := make([]span, 0, len(spans)+len(insert))
	var running int64
	inserted := false
	for _, sp := range spans {
		ln := sp.summary.Bytes
		if !inserted && running == start {
			out = append(out, insert...)
			inserted = true
		}
		switch {
		case sp.isWidget:
			// Zero-width: kept unless strictly inside the removed range.
			if running <= start || running >= end {
				out = append(out, sp)
			}
		case running >= start && running < end:
			// Fully inside the removed range (boundaries are now exact):
			// dropped.
		default:
			out = append(out, sp)
		}
		running += ln
	}
	if !inserted {
		out = append(out, insert...)
	}
	return out
}

// trimAtBoundary splits whichever text span straddles boundary into two,
// leaving every other span untouched.
func trimAtBoundary(spans []span, boundary int64) []span {
	out := make([]span, 0, len(spans)+1)
	var running int64
	for _, sp := range spans {
		ln := sp.summary.Bytes
		if !sp.isWidget && running < boundary && boundary < running+ln {
			cut := int(boundary - running)
			l, r := sp.splitAt(cut)
			out = append(out, l, r)
		} else {
			out = append(out, sp)
		}
		running += ln
	}
	return out
}
