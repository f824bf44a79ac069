package textproc

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of s with tags removed and entities
// decoded. IMDB reviews embed "<br /><br />" between paragraphs, so text
// nodes are separated by a space.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(z.Text())
		}
	}
}
