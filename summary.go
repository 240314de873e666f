package doctree

// Summary is the aggregate bottom-up cached on every node: spec invariant 1
// requires a node's summary to equal the sum of its children's summaries.
type Summary struct {
	// Bytes is the text byte count (widgets contribute zero).
	Bytes int64
	// Newlines is the count of '\n' bytes. '\r\n' counts as one line
	// break whose '\r' belongs to the prior line (spec §4.1, §9).
	Newlines int64
	// Chars is the Unicode scalar (rune) count, for column navigation.
	Chars int64
	// Widgets is the count of inline-widget spans.
	Widgets int64
}

// Add returns the element-wise sum of s and o, checking for overflow of any
// field. ok is false if any field would exceed the representable range.
func (s Summary) Add(o Summary) (Summary, bool) {
	bytes, ok1 := addOverflowCheck(s.Bytes, o.Bytes)
	newlines, ok2 := addOverflowCheck(s.Newlines, o.Newlines)
	chars, ok3 := addOverflowCheck(s.Chars, o.Chars)
	widgets, ok4 := addOverflowCheck(s.Widgets, o.Widgets)
	return Summary{bytes, newlines, chars, widgets}, ok1 && ok2 && ok3 && ok4
}

// addOverflowCheck adds a and b, reporting whether the signed 64-bit sum
// overflowed (spec's Overflow failure kind).
func addOverflowCheck(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// sumSummaries folds Add across fs, returning ok=false on the first overflow.
func sumSummaries(fs []Summary) (Summary, bool) {
	var total Summary
	for _, f := range fs {
		var ok bool
		total, ok = total.Add(f)
		if !ok {
			return Summary{}, false
		}
	}
	return total, true
}

// summarizeText computes the Summary of a raw text-run byte slice.
func summarizeText(data []byte) Summary {
	var nl, chars int64
	for i := 0; i < len(data); {
		b := data[i]
		if b == '\n' {
			nl++
		}
		// Count scalar values, not UTF-8 bytes: advance by the encoded
		// rune's width rather than one byte at a time.
		switch {
		case b < 0x80:
			i++
		case b&0xE0 == 0xC0:
			i += 2
		case b&0xF0 == 0xE0:
			i += 3
		case b&0xF8 == 0xF0:
			i += 4
		default:
			i++ // invalid lead byte; advance to make progress
		}
		chars++
	}
	return Summary{Bytes: int64(len(data)), Newlines: nl, Chars: chars}
}
