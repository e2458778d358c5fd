package bias

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// wordMatcher finds case-insensitive whole-word occurrences of one trigger word.
// A whole word is one not touching a letter, mark, digit or underscore on either side.
type wordMatcher struct {
	word    string
	pattern *regexp.Regexp
}

type span struct {
	start, end int
}

func newWordMatcher(word string) (*wordMatcher, error) {
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(word))
	if err != nil {
		return nil, fmt.Errorf("failed to compile trigger %q: %w", word, err)
	}
	return &wordMatcher{word: word, pattern: pattern}, nil
}

// matches reports whether s contains at least one whole-word occurrence
func (m *wordMatcher) matches(s string) bool {
	return len(m.find(s, 1)) > 0
}

// find returns up to limit whole-word occurrences (limit < 0 means all)
func (m *wordMatcher) find(s string, limit int) []span {
	var spans []span
	offset := 0
	for offset < len(s) && (limit < 0 || len(spans) < limit) {
		loc := m.pattern.FindStringIndex(s[offset:])
		if loc == nil || loc[0] == loc[1] {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if atWordEdges(s, start, end) {
			spans = append(spans, span{start: start, end: end})
			offset = end
			continue
		}
		// Retry one rune further so overlapping candidates are not skipped
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return spans
}

// highlight escapes s and wraps every whole-word occurrence in the marker
func (m *wordMatcher) highlight(s string) string {
	var b strings.Builder
	last := 0
	for _, sp := range m.find(s, -1) {
		b.WriteString(html.EscapeString(s[last:sp.start]))
		b.WriteString(markOpen)
		b.WriteString(html.EscapeString(s[sp.start:sp.end]))
		b.WriteString(markClose)
		last = sp.end
	}
	b.WriteString(html.EscapeString(s[last:]))
	return b.String()
}

func atWordEdges(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

// isWordRune reports whether r continues a word: letters (L*), combining and
// spacing marks (M*), decimal digits (Nd) and '_'. Other numerics such as
// superscripts (No) and letter numbers (Nl) are boundaries.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
