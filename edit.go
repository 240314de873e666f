package doctree

// ByteRange is a half-open [Start, End) byte range in the pre-edit tree.
type ByteRange struct {
	Start, End int64
}

// Len returns the range's width in bytes.
func (r ByteRange) Len() int64 { return r.End - r.Start }

// EditKind selects which of the three edit operations an Edit performs.
type EditKind int

const (
	// EditInsert inserts Content at Pos.
	EditInsert EditKind = iota
	// EditDelete removes Range.
	EditDelete
	// EditReplace removes Range and inserts Content in its place.
	EditReplace
)

// Edit is one mutation queued on a Doc and later applied by Tree.Apply.
// Pos and Range are always expressed in byte offsets of the pre-edit tree.
type Edit struct {
	Kind EditKind

	// Pos is used by EditInsert.
	Pos int64

	// Range is used by EditDelete and EditReplace.
	Range ByteRange

	// Text is the inserted content for EditInsert/EditReplace when Widget
	// is nil. May be empty only for EditReplace (equivalent to a delete).
	Text []byte

	// Widget is the inserted content for EditInsert/EditReplace when the
	// new span is an inline widget rather than text. Mutually exclusive
	// with Text; exactly one determines the inserted span's kind unless
	// the edit inserts nothing (a bare EditDelete).
	Widget *Widget
}

// InsertText returns an Edit that inserts text at pos.
func InsertText(pos int64, text []byte) Edit {
	return Edit{Kind: EditInsert, Pos: pos, Text: text}
}

// InsertWidget returns an Edit that inserts a widget at pos.
func InsertWidget(pos int64, w Widget) Edit {
	return Edit{Kind: EditInsert, Pos: pos, Widget: &w}
}

// DeleteRange returns an Edit that removes [start, end).
func DeleteRange(start, end int64) Edit {
	return Edit{Kind: EditDelete, Range: ByteRange{start, end}}
}

// ReplaceText returns an Edit that removes [start, end) and inserts text.
func ReplaceText(start, end int64, text []byte) Edit {
	return Edit{Kind: EditReplace, Range: ByteRange{start, end}, Text: text}
}

// ReplaceWidget returns an Edit that removes [start, end) and inserts a widget.
func ReplaceWidget(start, end int64, w Widget) Edit {
	return Edit{Kind: EditReplace, Range: ByteRange{start, end}, Widget: &w}
}

// newLen reports the byte length of the content this edit inserts.
func (e Edit) newLen() int64 {
	if e.Widget != nil {
		return 0
	}
	return int64(len(e.Text))
}

// spans builds the span(s) this edit inserts, or nil if it inserts nothing
// (a bare delete). Text content longer than MaxChunkBytes is split into
// multiple spans, same as initial tree construction.
func (e Edit) spans() []span {
	switch {
	case e.Widget != nil:
		return []span{newWidgetSpan(*e.Widget)}
	case e.Kind != EditDelete:
		return chunkText(e.Text)
	default:
		return nil
	}
}

// EditDelta describes how byte offsets shift across one edit: old_len
// bytes starting at pos were replaced by new_len bytes. The layout cache
// and syntax overlay consume these to adjust their own state incrementally
// instead of recomputing from scratch.
type EditDelta struct {
	Pos    int64
	OldLen int64
	NewLen int64
}

// deltaOf computes the EditDelta an edit produces against a tree where the
// edit's range/position have already been validated.
func deltaOf(e Edit) EditDelta {
	switch e.Kind {
	case EditInsert:
		return EditDelta{Pos: e.Pos, OldLen: 0, NewLen: e.newLen()}
	case EditDelete:
		return EditDelta{Pos: e.Range.Start, OldLen: e.Range.Len(), NewLen: 0}
	default: // EditReplace
		return EditDelta{Pos: e.Range.Start, OldLen: e.Range.Len(), NewLen: e.newLen()}
	}
}
