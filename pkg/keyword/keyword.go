// Package keyword models Gherkin's five-valued display keyword
// (Given/When/Then/And/But) and its three-valued normalized resolution,
// and carries the stateful And/But-to-context walk described for a single
// step sequence (one scenario, or one background).
package keyword

import "fmt"

// Kind is the three-valued normalized step kind.
type Kind int

const (
	Given Kind = iota
	When
	Then
)

func (k Kind) String() string {
	switch k {
	case Given:
		return "Given"
	case When:
		return "When"
	case Then:
		return "Then"
	default:
		return "Unknown"
	}
}

// Display is the five-valued raw keyword preserved for emission.
type Display string

const (
	DisplayGiven Display = "Given"
	DisplayWhen  Display = "When"
	DisplayThen  Display = "Then"
	DisplayAnd   Display = "And"
	DisplayBut   Display = "But"
)

// ParseDisplay converts a raw Gherkin keyword (as emitted by the surface
// parser, which includes trailing whitespace such as "Given ") into a
// Display value. The Gherkin "*" bullet keyword is accepted as an alias for
// And/But: it never changes the contextual kind either.
func ParseDisplay(raw string) (Display, error) {
	switch trimKeyword(raw) {
	case "Given":
		return DisplayGiven, nil
	case "When":
		return DisplayWhen, nil
	case "Then":
		return DisplayThen, nil
	case "And":
		return DisplayAnd, nil
	case "But", "*":
		return DisplayBut, nil
	default:
		return "", fmt.Errorf("unknown step keyword %q", raw)
	}
}

func trimKeyword(raw string) string {
	start, end := 0, len(raw)
	for start < end && isSpace(raw[start]) {
		start++
	}
	for end > start && isSpace(raw[end-1]) {
		end--
	}
	return raw[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Normalizer resolves And/But keywords to the preceding concrete kind within
// one independent step sequence. A new Normalizer must be created per
// scenario and per background — currentKind always starts at Given.
type Normalizer struct {
	current Kind
}

// NewNormalizer returns a Normalizer primed to Given, as required at the
// start of every independent step sequence.
func NewNormalizer() *Normalizer {
	return &Normalizer{current: Given}
}

// Resolve advances the normalizer by one step's display keyword and returns
// the normalized kind that step should be matched against.
func (n *Normalizer) Resolve(d Display) (Kind, error) {
	switch d {
	case DisplayGiven:
		n.current = Given
	case DisplayWhen:
		n.current = When
	case DisplayThen:
		n.current = Then
	case DisplayAnd, DisplayBut:
		// contextual kind carries over unchanged
	default:
		return 0, fmt.Errorf("unknown step keyword %q", d)
	}
	return n.current, nil
}
