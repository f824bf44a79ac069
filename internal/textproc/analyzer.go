// Package textproc turns raw review text into normalised terms: markup is
// stripped, text is NFC-normalised and lower-cased, split on non-alphanumeric
// boundaries, filtered for stop-words and short tokens, and stemmed.
package textproc

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
)

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Stemmer reduces a lower-cased word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// Analyzer is not safe for concurrent use when it wraps a snowball stemmer.
type Analyzer struct {
	stripHTML bool
	stopWords map[string]struct{}
	minLength int
	stemmer   Stemmer
	close     func()
}

// NewAnalyzer builds an Analyzer from cfg. Callers must Close it to release
// the snowball stemmer.
func NewAnalyzer(cfg config.TextConfig) (*Analyzer, error) {
	a := &Analyzer{
		stripHTML: cfg.StripHTML,
		minLength: cfg.MinLength,
		close:     func() {},
	}
	if cfg.StopWords {
		a.stopWords = englishStopWords
	}
	switch cfg.Stemmer {
	case "snowball":
		s, err := newSnowball()
		if err != nil {
			return nil, fmt.Errorf("creating snowball stemmer: %w", err)
		}
		a.stemmer = s
		a.close = s.Close
	case "suffix":
		a.stemmer = SuffixStemmer{}
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown stemmer %q", cfg.Stemmer)
	}
	return a, nil
}

// Close releases stemmer resources.
func (a *Analyzer) Close() {
	a.close()
}

// Analyze breaks text into a slice of normalised Tokens.
func (a *Analyzer) Analyze(text string) []Token {
	if a.stripHTML {
		text = StripHTML(text)
	}
	text = strings.ToLower(norm.NFC.String(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if len([]rune(word)) < a.minLength {
			continue
		}
		if _, isStop := a.stopWords[word]; isStop {
			continue
		}
		term := word
		if a.stemmer != nil {
			term = a.stemmer.Stem(word)
		}
		if term == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     term,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms returns only the terms of Analyze(text).
func (a *Analyzer) Terms(text string) []string {
	tokens := a.Analyze(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}
