package doctree

import "testing"

func TestSearchLiteral(t *testing.T) {
	tr := FromText("the quick brown fox jumps over the lazy dog")
	m, ok, err := tr.Search("fox", 0, SearchOptions{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Text != "fox" || m.Range.Start != 16 {
		t.Errorf("match = %+v, want Text=fox Start=16", m)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	tr := FromText("Hello World")
	_, ok, err := tr.Search("WORLD", 0, SearchOptions{CaseSensitive: false})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !ok {
		t.Error("case-insensitive search should match")
	}
	_, ok, err = tr.Search("WORLD", 0, SearchOptions{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if ok {
		t.Error("case-sensitive search should not match differing case")
	}
}

func TestSearchWholeWord(t *testing.T) {
	tr := FromText("catalog cat category")
	m, ok, err := tr.Search("cat", 0, SearchOptions{CaseSensitive: true, WholeWord: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !ok {
		t.Fatal("expected a whole-word match")
	}
	if m.Range.Start != 8 {
		t.Errorf("whole-word match Start = %d, want 8 (the standalone \"cat\")", m.Range.Start)
	}
}

func TestSearchAllAndLimit(t *testing.T) {
	tr := FromText("a,a,a,a,a")
	matches, err := tr.SearchAll("a", SearchOptions{CaseSensitive: true})
	if err != nil {
		t.Fatalf("SearchAll error: %v", err)
	}
	if len(matches) != 5 {
		t.Errorf("len(matches) = %d, want 5", len(matches))
	}

	limited, err := tr.SearchAll("a", SearchOptions{CaseSensitive: true, Limit: 2})
	if err != nil {
		t.Fatalf("SearchAll error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}
}

func TestSearchRegex(t *testing.T) {
	tr := FromText("id=1 id=22 id=333")
	matches, err := tr.SearchAll(`id=\d+`, SearchOptions{CaseSensitive: true, Regex: true})
	if err != nil {
		t.Fatalf("SearchAll error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	if matches[2].Text != "id=333" {
		t.Errorf("matches[2].Text = %q, want %q", matches[2].Text, "id=333")
	}
}

func TestSearchInvalidRegex(t *testing.T) {
	tr := FromText("anything")
	_, _, err := tr.Search("(unterminated", 0, SearchOptions{Regex: true})
	if err != ErrInvalidRegex {
		t.Errorf("err = %v, want ErrInvalidRegex", err)
	}
}

func TestReplaceAllPreservesOffsets(t *testing.T) {
	tr := FromText("cat sat cat mat cat")
	edits, err := tr.ReplaceAll("cat", "dog", SearchOptions{CaseSensitive: true})
	if err != nil {
		t.Fatalf("ReplaceAll error: %v", err)
	}
	if len(edits) != 3 {
		t.Fatalf("len(edits) = %d, want 3", len(edits))
	}

	next, _, err := tr.Apply(edits)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	got, err := next.Slice(ByteRange{0, next.ByteCount()})
	if err != nil {
		t.Fatalf("Slice error: %v", err)
	}
	want := "dog sat dog mat dog"
	if got != want {
		t.Errorf("content after ReplaceAll = %q, want %q", got, want)
	}
}

func TestReplaceAllWithRegexCaptureGroups(t *testing.T) {
	tr := FromText("a=1 b=2")
	edits, err := tr.ReplaceAll(`(\w)=(\d)`, "$2=$1", SearchOptions{CaseSensitive: true, Regex: true})
	if err != nil {
		t.Fatalf("ReplaceAll error: %v", err)
	}
	next, _, err := tr.Apply(edits)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	got, err := next.Slice(ByteRange{0, next.ByteCount()})
	if err != nil {
		t.Fatalf("Slice error: %v", err)
	}
	if got != "1=a 2=b" {
		t.Errorf("content = %q, want %q", got, "1=a 2=b")
	}
}

func TestSearchAcrossLeafBoundary(t *testing.T) {
	padding := make([]byte, MaxChunkBytes-2)
	for i := range padding {
		padding[i] = 'x'
	}
	// Place the needle straddling a leaf boundary so the streaming
	// io.RuneReader must cross spans mid-match.
	text := append(padding, []byte("NEEDLE")...)
	tr := FromText(string(text))

	m, ok, err := tr.Search("NEEDLE", 0, SearchOptions{CaseSensitive: true})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !ok {
		t.Fatal("expected a match straddling the leaf boundary")
	}
	if m.Range.Start != int64(len(padding)) {
		t.Errorf("match Start = %d, want %d", m.Range.Start, len(padding))
	}
}
