package doctree

import (
	"strings"
	"testing"
)

func TestFromTextCounts(t *testing.T) {
	tr := FromText("hello\nworld\n")
	if got := tr.ByteCount(); got != 12 {
		t.Errorf("ByteCount = %d, want 12", got)
	}
	if got := tr.LineCount(); got != 2 {
		t.Errorf("LineCount = %d, want 2", got)
	}
	if got := tr.CharCount(); got != 12 {
		t.Errorf("CharCount = %d, want 12", got)
	}
}

func TestEmptyTree(t *testing.T) {
	tr := FromText("")
	if got := tr.ByteCount(); got != 0 {
		t.Errorf("ByteCount = %d, want 0", got)
	}
	if tr != emptyTree {
		t.Error("FromText(\"\") should return the shared emptyTree")
	}
}

func TestLineToByteAndByteToLine(t *testing.T) {
	tr := FromText("aaa\nbbb\nccc")
	tests := []struct {
		line int64
		pos  int64
	}{
		{0, 0},
		{1, 4},
		{2, 8},
	}
	for _, tt := range tests {
		pos, ok := tr.LineToByte(tt.line)
		if !ok || pos != tt.pos {
			t.Errorf("LineToByte(%d) = (%d, %v), want (%d, true)", tt.line, pos, ok, tt.pos)
		}
		line, err := tr.ByteToLine(tt.pos)
		if err != nil || line != tt.line {
			t.Errorf("ByteToLine(%d) = (%d, %v), want (%d, nil)", tt.pos, line, err, tt.line)
		}
	}

	if _, ok := tr.LineToByte(-1); ok {
		t.Error("LineToByte(-1) should fail")
	}
	if _, ok := tr.LineToByte(3); ok {
		t.Error("LineToByte(3) should fail: only 2 newlines")
	}
}

func TestSlice(t *testing.T) {
	tr := FromText("the quick brown fox")
	got, err := tr.Slice(ByteRange{4, 9})
	if err != nil {
		t.Fatalf("Slice error: %v", err)
	}
	if got != "quick" {
		t.Errorf("Slice = %q, want %q", got, "quick")
	}
}

func TestLineAt(t *testing.T) {
	tr := FromText("first\nsecond\nthird")
	got, err := tr.LineAt(7)
	if err != nil {
		t.Fatalf("LineAt error: %v", err)
	}
	if got != "second\n" {
		t.Errorf("LineAt(7) = %q, want %q", got, "second\n")
	}
}

func TestColumnAtGraphemeClusters(t *testing.T) {
	// A flag emoji is two code points forming one grapheme cluster; column
	// counting must treat it as a single column (spec §4.1).
	tr := FromText("e\U0001F1FA\U0001F1F8f")
	col, err := tr.ColumnAt(tr.ByteCount())
	if err != nil {
		t.Fatalf("ColumnAt error: %v", err)
	}
	if col != 3 {
		t.Errorf("ColumnAt(end) = %d, want 3 (e, flag, f)", col)
	}
}

func TestInsertAcrossLeafBoundary(t *testing.T) {
	// Two full leaves of MaxSpans chunks each; mid is the byte where the
	// first leaf ends and the second begins.
	big := strings.Repeat("x", MaxChunkBytes*MaxSpans*2)
	tr := FromText(big)

	mid := int64(MaxChunkBytes * MaxSpans)
	next, deltas, err := tr.Apply([]Edit{InsertText(mid, []byte("INSERTED"))})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if len(deltas) != 1 || deltas[0].Pos != mid || deltas[0].NewLen != 8 {
		t.Errorf("delta = %+v, want {Pos:%d OldLen:0 NewLen:8}", deltas[0], mid)
	}
	if got := next.ByteCount(); got != int64(len(big))+8 {
		t.Errorf("ByteCount after insert = %d, want %d", got, len(big)+8)
	}
	slice, err := next.Slice(ByteRange{mid, mid + 8})
	if err != nil {
		t.Fatalf("Slice error: %v", err)
	}
	if slice != "INSERTED" {
		t.Errorf("Slice at insertion point = %q, want %q", slice, "INSERTED")
	}
	// Original tree is untouched: persistence.
	if tr.ByteCount() != int64(len(big)) {
		t.Error("original tree mutated by Apply")
	}
}

func TestDeleteCrossingManySpans(t *testing.T) {
	big := strings.Repeat("0123456789", MaxChunkBytes)
	tr := FromText(big)

	start := int64(MaxChunkBytes - 3)
	end := int64(MaxChunkBytes*2 + 7)
	next, _, err := tr.Apply([]Edit{DeleteRange(start, end)})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	want := int64(len(big)) - (end - start)
	if got := next.ByteCount(); got != want {
		t.Errorf("ByteCount after delete = %d, want %d", got, want)
	}

	wantText := big[:start] + big[end:]
	got, err := next.Slice(ByteRange{0, next.ByteCount()})
	if err != nil {
		t.Fatalf("Slice error: %v", err)
	}
	if got != wantText {
		t.Error("content after cross-span delete does not match expected splice")
	}
}

func TestApplyRejectsNonBoundary(t *testing.T) {
	tr := FromText("héllo") // 'é' is 2 bytes; byte 2 is mid-codepoint
	_, _, err := tr.Apply([]Edit{InsertText(2, []byte("x"))})
	if err == nil {
		t.Error("Apply should reject an edit splitting a UTF-8 code point")
	}
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	tr := FromText("short")
	_, _, err := tr.Apply([]Edit{DeleteRange(0, 100)})
	if err == nil {
		t.Error("Apply should reject an out-of-range delete")
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	tr := FromText("hello")
	_, _, err := tr.Apply([]Edit{
		InsertText(0, []byte("ok")),
		DeleteRange(0, 999), // invalid: out of range
	})
	if err == nil {
		t.Fatal("expected error from invalid second edit")
	}
	if tr.ByteCount() != 5 {
		t.Error("original tree must be unaffected when Apply fails partway through")
	}
}

func TestWidgetsOccupyZeroBytes(t *testing.T) {
	tr := FromText("ab")
	next, _, err := tr.Apply([]Edit{InsertWidget(1, Widget{Width: 10, Height: 10})})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got := next.ByteCount(); got != 2 {
		t.Errorf("ByteCount with widget = %d, want 2 (widgets occupy zero bytes)", got)
	}
	if got := next.WidgetCount(); got != 1 {
		t.Errorf("WidgetCount = %d, want 1", got)
	}
}

func TestFindNextPrevNewline(t *testing.T) {
	tr := FromText("aaa\nbbb\nccc")
	pos, ok, err := tr.FindNextNewline(0)
	if err != nil || !ok || pos != 3 {
		t.Errorf("FindNextNewline(0) = (%d, %v, %v), want (3, true, nil)", pos, ok, err)
	}
	pos, ok, err = tr.FindPrevNewline(10)
	if err != nil || !ok || pos != 7 {
		t.Errorf("FindPrevNewline(10) = (%d, %v, %v), want (7, true, nil)", pos, ok, err)
	}
}
