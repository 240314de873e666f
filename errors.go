// Package doctree provides a persistent, balanced, sum-indexed sequence of
// text and inline-widget spans for a GPU-accelerated text editor: the tree,
// its single-writer/many-reader publication coordinator, undo/redo history,
// and pattern search.
package doctree

import "errors"

// Edit errors
var (
	// ErrInvalidEdit indicates a position out of range or a split inside a
	// UTF-8 code point. It fails the entire flush; the queue and version
	// are left unchanged.
	ErrInvalidEdit = errors.New("invalid edit: position out of range or splits a code point")

	// ErrInvalidUTF8 indicates an edit would produce ill-formed UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 sequence")

	// ErrOverflow indicates a summary counter would exceed its representable
	// range (e.g. byte_count > 2^63).
	ErrOverflow = errors.New("summary overflow")
)

// Position errors
var (
	// ErrInvalidPosition indicates that a position or range is out of bounds.
	ErrInvalidPosition = errors.New("position out of bounds")
)

// Search errors
var (
	// ErrInvalidRegex indicates a malformed regular expression in search
	// options. The tree is never mutated when this is returned.
	ErrInvalidRegex = errors.New("invalid regular expression")
)

// Tree structure errors
var (
	// ErrNotALeaf indicates that an operation expected a leaf node but got
	// an internal node.
	ErrNotALeaf = errors.New("expected leaf node")

	// ErrInternal indicates an internal consistency error (should not
	// happen outside of a bug in the tree implementation).
	ErrInternal = errors.New("internal error")
)

// History errors
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Cursor errors
var (
	// ErrCursorNotFound indicates that the cursor does not belong to this doc.
	ErrCursorNotFound = errors.New("cursor not found")
)

// Conditions named for local recovery. No function in this module
// returns or records either value.
var (
	// ErrPoisonedWorker names a panic in the syntax worker. The
	// doctree/syntax worker does not recover panics, so nothing reports
	// this value.
	ErrPoisonedWorker = errors.New("syntax worker poisoned")

	// ErrFontShapeFailure names a font provider returning no glyphs for a
	// cluster. doctree/layout does not report it or substitute a fallback
	// glyph: text shaped to no glyphs is laid out with no glyphs.
	ErrFontShapeFailure = errors.New("font provider produced no glyphs for cluster")
)
