// Package pattern compiles a step-definition pattern string containing
// named {placeholder} slots into a matcher that recognizes concrete step
// text and extracts ordered argument captures.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderExp = regexp.MustCompile(`\{(\w+)\}`)

// captureExp is the body of each emitted capture group: a double-quoted
// phrase (which may contain spaces) or a run of non-whitespace.
const captureExp = `("[^"]*"|\S+)`

// Matcher recognizes concrete step text against a compiled pattern and
// extracts the raw captured argument tokens in order.
type Matcher struct {
	re               *regexp.Regexp
	placeholderNames []string
}

// Names returns the placeholder names in the order they appear in the
// original pattern (and therefore the order their captures are returned in).
func (m *Matcher) Names() []string {
	out := make([]string, len(m.placeholderNames))
	copy(out, m.placeholderNames)
	return out
}

// Match applies the matcher to concrete step text. On success it returns
// the ordered raw captured substrings; otherwise ok is false.
func (m *Matcher) Match(text string) (args []string, ok bool) {
	if m.re == nil {
		return nil, false
	}
	sub := m.re.FindStringSubmatch(text)
	if sub == nil {
		return nil, false
	}
	return sub[1:], true
}

// PlaceholderCount reports how many {name} occurrences the source pattern
// declared, independent of whether compilation ultimately succeeded.
func PlaceholderCount(rawPattern string) int {
	return len(placeholderExp.FindAllStringSubmatchIndex(rawPattern, -1))
}

// Compile turns a pattern string such as `I have {amount} dollars in
// {account}` into a Matcher. The escaping order is load-bearing: every
// {name} occurrence is first swapped for a unique sentinel token, then the
// remaining literal text is escaped for regular-expression matching, and
// only then are the sentinels swapped for capture groups. Reversing any of
// these steps lets an author's literal regex metacharacters corrupt the
// placeholder syntax, or vice versa.
func Compile(rawPattern string) (*Matcher, error) {
	var names []string

	sentineled := placeholderExp.ReplaceAllStringFunc(rawPattern, func(m string) string {
		groups := placeholderExp.FindStringSubmatch(m)
		idx := len(names)
		names = append(names, groups[1])
		return sentinel(idx)
	})

	escaped := regexp.QuoteMeta(sentineled)

	for i := range names {
		escaped = strings.Replace(escaped, sentinel(i), captureExp, 1)
	}

	re, err := regexp.Compile("(?i)^" + escaped + "$")
	if err != nil {
		return nil, fmt.Errorf("compiling step pattern %q: %w", rawPattern, err)
	}

	return &Matcher{re: re, placeholderNames: names}, nil
}

// MustNeverMatch returns a Matcher that fails to match any input. It is the
// fail-closed fallback used when pattern compilation fails: the offending
// step definition is treated as permanently unmatched rather than erroring
// the whole feature.
func MustNeverMatch() *Matcher {
	return &Matcher{}
}

func sentinel(i int) string {
	return fmt.Sprintf("\x00%d\x00", i)
}
