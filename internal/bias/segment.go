package bias

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minSentenceRunes is the trimmed length a piece must exceed to count as a sentence
const minSentenceRunes = 5

// SplitSentences splits text at whitespace runs that directly follow '.', '!' or '?'.
// Pieces are trimmed and those of minSentenceRunes characters or fewer are dropped.
func SplitSentences(text string) []string {
	sentences := make([]string, 0)
	add := func(piece string) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) > minSentenceRunes {
			sentences = append(sentences, piece)
		}
	}

	start := 0
	var prev rune
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) && isTerminator(prev) {
			add(text[start:i])

			// Swallow the whole whitespace run
			j := i
			for j < len(text) {
				next, n := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(next) {
					break
				}
				j += n
			}
			start, i, prev = j, j, 0
			continue
		}
		prev = r
		i += size
	}
	add(text[start:])

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
