package stepgen

import (
	"regexp"
	"strings"
	"unicode"
)

var placeholderInText = regexp.MustCompile(`\{[^}]*\}`)

// GeneratedMethodName derives a generated identifier from free text: split
// on spaces, hyphens and underscores, title-case each non-empty token,
// concatenate, then strip anything left that is not alphanumeric.
func GeneratedMethodName(text string) string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})

	var b strings.Builder
	for _, tok := range tokens {
		runes := []rune(tok)
		if len(runes) == 0 {
			continue
		}
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	var out strings.Builder
	for _, r := range b.String() {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// stripPlaceholders removes every {...} occurrence from pattern text, as
// the intermediate step before deriving a stub method name from it.
func stripPlaceholders(patternText string) string {
	return placeholderInText.ReplaceAllString(patternText, "")
}
