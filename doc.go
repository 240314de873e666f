package doctree

import (
	"sync"
	"sync/atomic"
)

// Doc coordinates a single writer and many lock-free readers over a Tree
// (spec invariant 5). Readers call Read and see an atomically-published,
// fully immutable snapshot; they never block on, or observe a partial
// result from, a concurrent Edit. Writers are serialized by writeMu: the
// core is single-writer, so contention there is expected and cheap to
// hold briefly, but readers must never pay for it.
type Doc struct {
	current atomic.Pointer[Tree]
	version atomic.Int64

	writeMu sync.Mutex
	pending []Edit
	history *History
}

// NewDoc returns a Doc with empty content and a fresh undo history of the
// given capacity (0 selects DefaultHistoryCapacity).
func NewDoc(capacity int) *Doc {
	d := &Doc{history: newHistory(capacity)}
	d.current.Store(emptyTree)
	return d
}

// NewDocFromText returns a Doc seeded with the given text.
func NewDocFromText(capacity int, text string) *Doc {
	d := &Doc{history: newHistory(capacity)}
	d.current.Store(FromText(text))
	return d
}

// Read returns the currently published Tree. The returned value is
// immutable and safe to use concurrently with any number of other readers
// and with a concurrent Edit: it never changes after being returned.
func (d *Doc) Read() *Tree {
	return d.current.Load()
}

// Version returns the number of publications made so far: each successful
// Flush adds one however many edits it applied, and so does each
// successful Undo or Redo.
func (d *Doc) Version() int64 {
	return d.version.Load()
}

// QueueEdit stages an edit to be applied by the next Flush. Non-blocking:
// it only appends to the writer's own pending-edit queue. Only the single
// document-writer thread may call this (spec §5's role table).
func (d *Doc) QueueEdit(e Edit) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.pending = append(d.pending, e)
}

// Flush applies every queued edit, in queue order, to the current
// snapshot, records one undo entry for the batch, and atomically
// publishes the result. caret is opaque caller state (e.g. cursor
// position) stashed alongside the undo entry so Undo/Redo can hand it
// back; the core never interprets it. Returns after publication is
// visible to Read.
//
// On validation failure the whole batch is rejected: the queue, version,
// and published tree are all left exactly as they were.
func (d *Doc) Flush(caret any) ([]EditDelta, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if len(d.pending) == 0 {
		return nil, nil
	}

	before := d.current.Load()
	next, deltas, err := before.Apply(d.pending)
	if err != nil {
		return nil, err
	}

	d.history.push(before, caret)
	d.current.Store(next)
	d.version.Add(1)
	d.pending = d.pending[:0]
	return deltas, nil
}

// Edit is a convenience wrapper that queues edits and flushes immediately,
// for callers that do not need to batch multiple edits across separate
// QueueEdit calls before publication.
func (d *Doc) Edit(edits []Edit, caret any) ([]EditDelta, error) {
	d.writeMu.Lock()
	d.pending = append(d.pending, edits...)
	d.writeMu.Unlock()
	return d.Flush(caret)
}

// Undo restores the snapshot preceding the most recent edit (or the most
// recent undo's redo entry), returning the caret state saved at that
// point. ErrNothingToUndo if the history is empty.
func (d *Doc) Undo() (any, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	entry, ok := d.history.undo(d.current.Load())
	if !ok {
		return nil, ErrNothingToUndo
	}
	d.current.Store(entry.tree)
	d.version.Add(1)
	return entry.caret, nil
}

// Redo re-applies the most recently undone edit. ErrNothingToRedo if
// there is nothing to redo, which is also the state immediately after any
// fresh Edit clears the redo stack.
func (d *Doc) Redo() (any, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	entry, ok := d.history.redo(d.current.Load())
	if !ok {
		return nil, ErrNothingToRedo
	}
	d.current.Store(entry.tree)
	d.version.Add(1)
	return entry.caret, nil
}
