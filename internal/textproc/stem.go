package textproc

import (
	"strings"

	"github.com/tebeka/snowball"
)

// englishStopWords leaves out negations ("not", "no", "but"); they carry
// sentiment.
var englishStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "they": {}, "have": {},
	"had": {}, "what": {}, "when": {}, "where": {}, "who": {},
	"which": {}, "their": {}, "if": {}, "each": {}, "do": {},
	"so": {}, "can": {}, "br": {}, "she": {}, "his": {}, "her": {},
}

// SuffixStemmer applies a simple suffix-stripping stemmer.
type SuffixStemmer struct{}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

func (SuffixStemmer) Stem(word string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}

// snowballStemmer wraps the English snowball stemmer (cgo).
type snowballStemmer struct {
	s *snowball.Stemmer
}

func newSnowball() (*snowballStemmer, error) {
	s, err := snowball.New("english")
	if err != nil {
		return nil, err
	}
	return &snowballStemmer{s: s}, nil
}

func (s *snowballStemmer) Stem(word string) string {
	return s.s.Stem(word)
}

func (s *snowballStemmer) Close() {
	s.s.Close()
}
