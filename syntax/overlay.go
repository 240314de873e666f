// Package syntax implements the syntax overlay: a stable set of token
// ranges kept queryable across the latency of an asynchronous parser via
// an edit-delta adjustment algebra (spec §4.6). Each delta is applied to
// the stable ranges as it arrives; no queue of deltas is kept.
package syntax

import "sort"

// TokenRange is a stable, parser-produced styling range (spec §3).
type TokenRange struct {
	Start, End int64
	TokenID    int
}

// EditDelta mirrors doctree.EditDelta; duplicated here (rather than
// imported) so this package depends only on plain data, matching spec
// §4.6's contract which is expressed purely in (pos, old_len, new_len).
type EditDelta struct {
	Pos    int64
	OldLen int64
	NewLen int64
}

// Overlay is the syntax overlay: spec §4.6's public contract.
type Overlay struct {
	stable        []TokenRange // sorted by Start, non-overlapping, always in current-document space
	parserVersion int64
}

// NewOverlay returns an empty overlay; StyleAt returns 0 (unstyled) for
// every offset until ApplyFreshTokens or edits arrive.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// ApplyFreshTokens replaces the entire stable set with a completed
// parse's output (spec §4.6).
func (o *Overlay) ApplyFreshTokens(tokens []TokenRange, parserVersion int64) {
	sorted := append([]TokenRange(nil), tokens...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	o.stable = sorted
	o.parserVersion = parserVersion
}

// ApplyEditDelta immediately adjusts the stable ranges to keep them in
// current-document space per spec §4.6's algebra. Called once per tree
// edit, right after the edit is published.
func (o *Overlay) ApplyEditDelta(pos, oldLen, newLen int64) {
	o.stable = adjustRanges(o.stable, pos, oldLen, newLen)
}

// adjustRanges applies one edit's effect to a sorted, non-overlapping
// range set per spec §4.6 / §9's context-inheritance rule.
func adjustRanges(ranges []TokenRange, pos, oldLen, newLen int64) []TokenRange {
	delta := newLen - oldLen
	end := pos + oldLen

	out := ranges[:0:0]
	for _, r := range ranges {
		switch {
		case r.End <= pos:
			// Strictly before the edit: unchanged.
			out = append(out, r)
		case r.Start >= end:
			// Strictly after: shift by delta.
			out = append(out, TokenRange{Start: r.Start + delta, End: r.End + delta, TokenID: r.TokenID})
		case r.Start <= pos && r.End >= end:
			// Contains the whole edited range (for an insert, oldLen==0,
			// only r.Start<pos<r.End reaches here: an insert at r.Start
			// shifts the range and one at r.End leaves it unchanged):
			// expands so new text inherits this range's token id.
			out = append(out, TokenRange{Start: r.Start, End: r.End + delta, TokenID: r.TokenID})
		case r.Start < pos && r.End > pos && r.End < end:
			// Straddles only the left edge of a delete: truncate at pos.
			out = append(out, TokenRange{Start: r.Start, End: pos, TokenID: r.TokenID})
		case r.Start >= pos && r.Start < end && r.End > end:
			// Straddles only the right edge: truncate, then shift the
			// surviving tail's new start by delta.
			out = append(out, TokenRange{Start: end + delta, End: r.End + delta, TokenID: r.TokenID})
		case r.Start >= pos && r.End <= end:
			// Fully inside a deleted range: removed.
		}
	}
	return out
}

// StyleAt returns the token id covering byteOffset (spec §4.6). byteOffset
// is in current-document space, matching o.stable, which ApplyEditDelta
// keeps adjusted forward as edits arrive. Returns 0 (unstyled) if no
// stable range covers byteOffset, satisfying spec §8 invariant 9
// ("style_at is defined for every byte").
func (o *Overlay) StyleAt(byteOffset int64) int {
	return o.tokenAt(byteOffset)
}

// ContextTokenAt returns the token of the stable range containing
// byteOffset (spec §4.6, §9): used to color freshly inserted characters
// with their surrounding token before a fresh parse arrives.
func (o *Overlay) ContextTokenAt(byteOffset int64) int {
	return o.tokenAt(byteOffset)
}

// tokenAt binary-searches the stable set for the range covering
// byteOffset. Both StyleAt and ContextTokenAt query the same
// current-document-space set.
func (o *Overlay) tokenAt(byteOffset int64) int {
	i := sort.Search(len(o.stable), func(i int) bool { return o.stable[i].End > byteOffset })
	if i < len(o.stable) && o.stable[i].Start <= byteOffset {
		return o.stable[i].TokenID
	}
	return 0
}

// ParserVersion returns the version of the last ApplyFreshTokens call.
func (o *Overlay) ParserVersion() int64 { return o.parserVersion }
