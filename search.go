package doctree

import (
	"io"
	"regexp"
	"sync"
	"unicode"
	"unicode/utf8"
)

// treeRuneReader implements io.RuneReader over a Tree without materializing
// the whole document: it walks leaves lazily as the reader advances.
type treeRuneReader struct {
	t         *Tree
	pos       int64
	leafData  []byte
	leafStart int64
}

func (t *Tree) newRuneReader(startPos int64) *treeRuneReader {
	return &treeRuneReader{t: t, pos: startPos, leafStart: -1}
}

func (r *treeRuneReader) ReadRune() (rune, int, error) {
	if r.pos >= r.t.ByteCount() {
		return 0, 0, io.EOF
	}
	if r.leafData == nil || r.pos < r.leafStart || r.pos >= r.leafStart+int64(len(r.leafData)) {
		if !r.loadLeafAt(r.pos) {
			// No text span covers pos; skip forward.
			r.pos++
			return r.ReadRune()
		}
	}
	local := r.pos - r.leafStart
	ru, size := utf8.DecodeRune(r.leafData[local:])
	if ru == utf8.RuneError && size <= 1 {
		r.pos++
		return utf8.RuneError, 1, nil
	}
	r.pos += int64(size)
	return ru, size, nil
}

// loadLeafAt finds the text span containing pos and caches its bytes.
// Returns false if no text span covers pos.
func (r *treeRuneReader) loadLeafAt(pos int64) bool {
	sp, spanStart, ok := findSpanAt(r.t.root, 0, pos)
	if !ok || sp.isWidget {
		return false
	}
	r.leafData = sp.data
	r.leafStart = spanStart
	return true
}

// findSpanAt locates the text span covering absolute byte offset pos.
// Widget spans cover no bytes and are never returned.
func findSpanAt(n *node, nodeStart, pos int64) (span, int64, bool) {
	if n.isLeaf {
		running := nodeStart
		for _, sp := range n.spans {
			end := running + sp.summary.Bytes
			if !sp.isWidget && pos >= running && pos < end {
				return sp, running, true
			}
			running = end
		}
		return span{}, 0, false
	}
	running := nodeStart
	for _, c := range n.children {
		end := running + c.summary.Bytes
		if pos >= running && pos < end {
			return findSpanAt(c, running, pos)
		}
		running = end
	}
	return span{}, 0, false
}

// SearchOptions configures Tree.Search and Tree.SearchAll.
type SearchOptions struct {
	// CaseSensitive, when false, folds case before comparing (plain
	// search) or prefixes the compiled pattern with (?i) (regex search).
	CaseSensitive bool
	// WholeWord requires a non-word rune (or document boundary) on both
	// sides of the match. Ignored for Regex searches: use \b in the
	// pattern instead.
	WholeWord bool
	// Regex treats Pattern as a regular expression instead of a literal.
	Regex bool
	// Limit caps the number of results SearchAll returns; 0 means
	// unlimited.
	Limit int
}

// SearchMatch is one located occurrence.
type SearchMatch struct {
	Range ByteRange
	Text  string
}

var regexCache sync.Map // map[regexCacheKey]*regexp.Regexp

type regexCacheKey struct {
	pattern       string
	caseSensitive bool
	regex         bool
}

// compilePattern compiles pattern under opts, sharing compiled regexes
// across calls with identical (pattern, case-sensitivity, regex mode) via a
// process wide cache: documents are re-searched far more often than
// patterns change, and compilation dominates short-pattern search cost.
func compilePattern(pattern string, opts SearchOptions) (*regexp.Regexp, error) {
	key := regexCacheKey{pattern: pattern, caseSensitive: opts.CaseSensitive, regex: opts.Regex}
	if cached, ok := regexCache.Load(key); ok {
		return cached.(*regexp.Regexp), nil
	}
	p := pattern
	if !opts.Regex {
		p = regexp.QuoteMeta(p)
	}
	if !opts.CaseSensitive {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, ErrInvalidRegex
	}
	actual, _ := regexCache.LoadOrStore(key, re)
	return actual.(*regexp.Regexp), nil
}

// Search returns the first match of pattern at or after from, or ok=false
// if there is none.
func (t *Tree) Search(pattern string, from int64, opts SearchOptions) (match SearchMatch, ok bool, err error) {
	if pattern == "" {
		return SearchMatch{}, false, nil
	}
	if from < 0 || from > t.ByteCount() {
		return SearchMatch{}, false, ErrInvalidPosition
	}

	re, err := compilePattern(pattern, opts)
	if err != nil {
		return SearchMatch{}, false, err
	}

	reader := t.newRuneReader(from)
	for {
		loc := re.FindReaderIndex(reader)
		if loc == nil {
			return SearchMatch{}, false, nil
		}
		start, end := from+int64(loc[0]), from+int64(loc[1])
		if opts.Regex || !opts.WholeWord || t.isWholeWord(start, end) {
			text, serr := t.Slice(ByteRange{start, end})
			if serr != nil {
				return SearchMatch{}, false, serr
			}
			return SearchMatch{Range: ByteRange{start, end}, Text: text}, true, nil
		}
		// Whole-word check failed for a literal match: the cached regex
		// was anchored to the first hit only, so resume after it.
		from = start + 1
		if from > t.ByteCount() {
			return SearchMatch{}, false, nil
		}
		reader = t.newRuneReader(from)
	}
}

// SearchAll returns every match of pattern in document order, up to
// opts.Limit (0 = unlimited).
func (t *Tree) SearchAll(pattern string, opts SearchOptions) ([]SearchMatch, error) {
	if pattern == "" {
		return nil, nil
	}
	var results []SearchMatch
	pos := int64(0)
	for {
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
		m, ok, err := t.Search(pattern, pos, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		results = append(results, m)
		if m.Range.Len() == 0 {
			pos = m.Range.End + 1
		} else {
			pos = m.Range.End
		}
		if pos > t.ByteCount() {
			break
		}
	}
	return results, nil
}

// isWholeWord reports whether the runes immediately outside [start, end)
// are absent or non-word, per spec's WholeWord option.
func (t *Tree) isWholeWord(start, end int64) bool {
	if start > 0 {
		if r := t.runeBefore(start); isWordRune(r) {
			return false
		}
	}
	if end < t.ByteCount() {
		if r := t.runeAfter(end); isWordRune(r) {
			return false
		}
	}
	return true
}

func (t *Tree) runeBefore(pos int64) rune {
	lo := pos - 4
	if lo < 0 {
		lo = 0
	}
	var buf []byte
	sliceBytes(t.root, 0, lo, pos, &buf)
	r, _ := utf8.DecodeLastRune(buf)
	return r
}

func (t *Tree) runeAfter(pos int64) rune {
	hi := pos + 4
	if hi > t.ByteCount() {
		hi = t.ByteCount()
	}
	var buf []byte
	sliceBytes(t.root, 0, pos, hi, &buf)
	r, _ := utf8.DecodeRune(buf)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ReplaceAll replaces every match of pattern with replacement (which may
// reference regex capture groups as $1, $2, ... when opts.Regex is set)
// and returns the edits to apply via Tree.Apply, in reverse document order.
func (t *Tree) ReplaceAll(pattern, replacement string, opts SearchOptions) ([]Edit, error) {
	matches, err := t.SearchAll(pattern, opts)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	var re *regexp.Regexp
	if opts.Regex {
		re, err = compilePattern(pattern, opts)
		if err != nil {
			return nil, err
		}
	}

	// Built back-to-front: Tree.Apply runs edits in order against a tree
	// that mutates as it goes, so earlier byte ranges must not shift out
	// from under a later edit still expressed in original-tree offsets.
	edits := make([]Edit, len(matches))
	for i, m := range matches {
		out := replacement
		if opts.Regex {
			out = string(re.ReplaceAll([]byte(m.Text), []byte(replacement)))
		}
		edits[len(matches)-1-i] = ReplaceText(m.Range.Start, m.Range.End, []byte(out))
	}
	return edits, nil
}
