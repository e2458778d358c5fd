// Package bias flags sentences that contain trigger words from a fixed
// category dictionary and scores the document by the share of flagged sentences.
//
// A Scanner holds no mutable state after construction and is safe for
// concurrent use. The same input always yields the same Report.
package bias

import (
	"fmt"
	"strconv"
)

// Scanner applies a compiled dictionary to text
type Scanner struct {
	dictionary  Dictionary
	categories  []compiledCategory
	fingerprint string
}

type compiledCategory struct {
	name     string
	matchers []*wordMatcher
}

// NewScanner validates the dictionary and compiles one matcher per trigger word
func NewScanner(dict Dictionary) (*Scanner, error) {
	if err := dict.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dictionary: %w", err)
	}

	dict = dict.clone()
	categories := make([]compiledCategory, 0, len(dict))
	for _, c := range dict {
		compiled := compiledCategory{name: c.Name, matchers: make([]*wordMatcher, 0, len(c.Words))}
		for _, w := range c.Words {
			m, err := newWordMatcher(w)
			if err != nil {
				return nil, err
			}
			compiled.matchers = append(compiled.matchers, m)
		}
		categories = append(categories, compiled)
	}

	return &Scanner{
		dictionary:  dict,
		categories:  categories,
		fingerprint: dict.Fingerprint(),
	}, nil
}

// MustDefault returns a scanner over DefaultDictionary
func MustDefault() *Scanner {
	s, err := NewScanner(DefaultDictionary())
	if err != nil {
		panic(err)
	}
	return s
}

// Dictionary returns a copy of the dictionary the scanner was built from
func (s *Scanner) Dictionary() Dictionary {
	return s.dictionary.clone()
}

// Fingerprint identifies the scanner's dictionary
func (s *Scanner) Fingerprint() string {
	return s.fingerprint
}

// Scan segments text into sentences and reports at most one finding per sentence
func (s *Scanner) Scan(text string) Report {
	sentences := SplitSentences(text)

	findings := make([]Finding, 0)
	for _, sentence := range sentences {
		if finding, ok := s.classify(sentence); ok {
			findings = append(findings, finding)
		}
	}

	score := ComputeScore(len(findings), len(sentences))
	level := LevelFor(score)

	return Report{
		Findings:  findings,
		Sentences: len(sentences),
		Score:     score,
		Level:     level,
		Color:     level.Color(),
	}
}

// classify returns the finding for the first category and word that match
func (s *Scanner) classify(sentence string) (Finding, bool) {
	for _, c := range s.categories {
		for _, m := range c.matchers {
			if !m.matches(sentence) {
				continue
			}
			return Finding{
				Category: c.name,
				Word:     m.word,
				Sentence: sentence,
				Text:     m.highlight(sentence),
			}, true
		}
	}
	return Finding{}, false
}

// ComputeScore returns the percentage of flagged sentences rounded to one
// decimal. Rounding is exact on the binary value with ties to even, so
// 1 of 16 sentences (6.25) scores 6.2.
func ComputeScore(findings, sentences int) float64 {
	if sentences <= 0 {
		return 0
	}
	pct := float64(findings) / float64(sentences) * 100
	score, err := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 1, 64), 64)
	if err != nil {
		return pct
	}
	return score
}

// LevelFor maps a score to its risk level. Both thresholds are exclusive.
func LevelFor(score float64) Level {
	switch {
	case score > 10:
		return LevelHigh
	case score > 3:
		return LevelMedium
	default:
		return LevelLow
	}
}
