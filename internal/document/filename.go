package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// decompose strips diacritics by decomposing to NFKD, removing combining
// marks, and recomposing.
var decompose = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives a filesystem-safe name from a page title. Path separators
// and drive markers become underscores; anything that is not a letter,
// digit, space, or one of "-_." is dropped.
func Slug(title string) string {
	if s, _, err := transform.String(decompose, title); err == nil {
		title = s
	}

	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	title = replacer.Replace(title)

	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == ' ':
			b.WriteRune(r)
		}
	}

	slug := strings.TrimSpace(b.String())
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
