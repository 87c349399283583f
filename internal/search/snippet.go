package search

import "unicode"

const (
	// MaxSnippetRunes is the line length, in code points, above which a
	// snippet is cut down to a window around the keyword.
	MaxSnippetRunes = 200
	// ContextRunes is the number of code points kept on each side of the
	// keyword when a line is cut.
	ContextRunes = 80
	// Ellipsis marks a side of the snippet that was cut.
	Ellipsis = "..."
)

// Snippet returns the part of content worth showing for keyword. Lines of at
// most MaxSnippetRunes code points are returned unchanged. Longer lines are
// cut to ContextRunes code points either side of the first case-insensitive
// occurrence of keyword, with Ellipsis on every side that does not reach the
// original bounds. If keyword does not occur, the head of the line is kept.
func Snippet(content, keyword string) string {
	runes := []rune(content)
	n := len(runes)
	if n <= MaxSnippetRunes {
		return content
	}

	needle := []rune(keyword)
	pos := indexFoldRunes(runes, needle)
	if pos < 0 {
		return string(runes[:MaxSnippetRunes]) + Ellipsis
	}

	start := max(0, pos-ContextRunes)
	end := min(n, pos+len(needle)+ContextRunes)

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = Ellipsis + snippet
	}
	if end < n {
		snippet += Ellipsis
	}
	return snippet
}

// IndexFold returns the code-point offset of the first case-insensitive
// occurrence of needle in s, or -1. Case folding is Unicode simple folding,
// so offsets line up with the original text one rune at a time.
func IndexFold(s, needle string) int {
	return indexFoldRunes([]rune(s), []rune(needle))
}

// ContainsFold reports whether needle occurs in s ignoring case.
func ContainsFold(s, needle string) bool {
	return IndexFold(s, needle) >= 0
}

func indexFoldRunes(hay, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		matched := true
		for j, r := range needle {
			if !equalFoldRune(hay[i+j], r) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

// equalFoldRune walks the simple-fold orbit of a looking for b.
func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// Segment is a run of text that either matches the keyword or does not.
type Segment struct {
	Text  string
	Match bool
}

// Segments splits s around every case-insensitive occurrence of keyword so
// callers can mark matches without re-parsing escaped output.
func Segments(s, keyword string) []Segment {
	hay, needle := []rune(s), []rune(keyword)
	if len(needle) == 0 {
		return []Segment{{Text: s}}
	}
	var out []Segment
	pos := 0
	for {
		i := indexFoldRunes(hay[pos:], needle)
		if i < 0 {
			break
		}
		if i > 0 {
			out = append(out, Segment{Text: string(hay[pos : pos+i])})
		}
		out = append(out, Segment{Text: string(hay[pos+i : pos+i+len(needle)]), Match: true})
		pos += i + len(needle)
	}
	if pos < len(hay) {
		out = append(out, Segment{Text: string(hay[pos:])})
	}
	return out
}
