// Package stepgen implements the Step Processor: for each Gherkin step it
// either binds it to a catalog step definition, or synthesizes an
// unimplemented-stub descriptor with inferred parameters.
package stepgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/weftgen/weft/internal/ordered"
	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/crif"
	"github.com/weftgen/weft/pkg/keyword"
)

// RawDataTable is the minimal shape of a Gherkin data table the processor
// needs; the assembler is responsible for adapting the parsed AST into it.
type RawDataTable struct {
	Headers []string
	Rows    [][]string
}

// RawStep is the minimal shape of a Gherkin step the processor needs.
type RawStep struct {
	RawKeyword string
	Text       string
	DataTable  *RawDataTable
}

// Accumulator collects the feature-scoped, deduplicated state that every
// step sequence (background and each scenario) contributes into: the
// feature's class and using sets, and its unimplemented-stub list.
type Accumulator struct {
	Classes *ordered.StringSet
	Usings  *ordered.StringSet

	unimplemented []*crif.UnimplementedStep
	seen          map[string]bool
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		Classes: ordered.NewStringSet(),
		Usings:  ordered.NewStringSet(),
		seen:    make(map[string]bool),
	}
}

// Unimplemented returns the deduplicated stub list in first-seen order.
func (a *Accumulator) Unimplemented() []*crif.UnimplementedStep {
	out := make([]*crif.UnimplementedStep, len(a.unimplemented))
	copy(out, a.unimplemented)
	return out
}

func (a *Accumulator) addUnimplemented(u *crif.UnimplementedStep) {
	key := u.NormalizedKeyword + "\x00" + u.Text
	if a.seen[key] {
		return
	}
	a.seen[key] = true
	a.unimplemented = append(a.unimplemented, u)
}

// Sequence processes one independent step sequence (a scenario, or a
// background) against a catalog, reporting into a shared Accumulator.
// Data-table variable numbering (table1, table2, ...) is scoped to the
// Sequence.
type Sequence struct {
	catalog      *catalog.Catalog
	acc          *Accumulator
	normalizer   *keyword.Normalizer
	tableCounter int
	sawUnmatched bool
}

// NewSequence starts a new step sequence against cat, reporting shared
// state into acc.
func NewSequence(cat *catalog.Catalog, acc *Accumulator) *Sequence {
	return &Sequence{
		catalog:    cat,
		acc:        acc,
		normalizer: keyword.NewNormalizer(),
	}
}

// SawUnmatched reports whether any step processed so far in this sequence
// was unmatched — the assembler uses this to decide stub-derived
// explicitness.
func (s *Sequence) SawUnmatched() bool {
	return s.sawUnmatched
}

// Process resolves one raw step into a CRIF step, binding it to a catalog
// definition or synthesizing a stub.
func (s *Sequence) Process(raw RawStep) (*crif.Step, error) {
	display, err := keyword.ParseDisplay(raw.RawKeyword)
	if err != nil {
		return nil, err
	}

	normalized, err := s.normalizer.Resolve(display)
	if err != nil {
		return nil, err
	}

	if def, captured, ok := s.catalog.Find(normalized, raw.Text); ok {
		return s.bindMatched(display, raw, def, captured), nil
	}

	s.sawUnmatched = true
	return s.bindUnmatched(display, normalized, raw), nil
}

func (s *Sequence) bindMatched(display keyword.Display, raw RawStep, def *catalog.Definition, captured []string) *crif.Step {
	s.acc.Classes.Add(def.OwnerClass)
	s.acc.Usings.Add(def.OwnerNamespace)

	captureParams := def.CaptureParams()
	args := make([]*crif.Argument, 0, len(captured)+1)

	for i, token := range captured {
		value := token
		switch {
		case isOutlinePlaceholder(token):
			value = stripAngles(token)
		case i < len(captureParams) && strings.EqualFold(captureParams[i].Type, "string") && !isQuoted(token):
			value = `"` + token + `"`
		}
		args = append(args, &crif.Argument{Value: value})
	}

	var dt *crif.DataTable
	if def.HasDataTable() && raw.DataTable != nil {
		s.tableCounter++
		dt = &crif.DataTable{
			VariableName: fmt.Sprintf("table%d", s.tableCounter),
			Headers:      append([]string(nil), raw.DataTable.Headers...),
			Rows:         copyRows(raw.DataTable.Rows),
		}
		args = append(args, &crif.Argument{Value: dt.VariableName})
	}

	markLastArgument(args)

	return &crif.Step{
		Keyword:   string(display),
		Text:      raw.Text,
		Owner:     def.OwnerClass,
		Method:    def.MethodName,
		Arguments: args,
		DataTable: dt,
	}
}

func (s *Sequence) bindUnmatched(display keyword.Display, normalized keyword.Kind, raw RawStep) *crif.Step {
	tokens := scanTokens(raw.Text)

	args := make([]*crif.Argument, 0, len(tokens)+1)
	patternText := raw.Text
	parameters := make([]*crif.StubParameter, 0, len(tokens)+1)

	stringCounter, valueCounter := 0, 0
	// Collect one replacement per token in left-to-right order; the pattern
	// text is then rebuilt from the original text in a single forward pass,
	// so no byte offset is invalidated by an earlier replacement.
	replacements := make([]replacement, len(tokens))
	for i, tok := range tokens {
		switch tok.kind {
		case tokenOutline:
			args = append(args, &crif.Argument{Value: tok.value})
			parameters = append(parameters, &crif.StubParameter{Type: "string", Name: tok.value})
			replacements[i] = replacement{start: tok.start, end: tok.end, text: tok.raw}
		case tokenQuoted:
			stringCounter++
			name := fmt.Sprintf("string%d", stringCounter)
			args = append(args, &crif.Argument{Value: tok.value})
			parameters = append(parameters, &crif.StubParameter{Type: "string", Name: name})
			replacements[i] = replacement{start: tok.start, end: tok.end, text: "{" + name + "}"}
		case tokenInteger:
			valueCounter++
			name := fmt.Sprintf("value%d", valueCounter)
			args = append(args, &crif.Argument{Value: tok.value})
			parameters = append(parameters, &crif.StubParameter{Type: "int", Name: name})
			replacements[i] = replacement{start: tok.start, end: tok.end, text: "{" + name + "}"}
		}
	}
	patternText = applyReplacements(raw.Text, replacements)

	var dt *crif.DataTable
	if raw.DataTable != nil {
		s.tableCounter++
		dt = &crif.DataTable{
			VariableName: fmt.Sprintf("table%d", s.tableCounter),
			Headers:      append([]string(nil), raw.DataTable.Headers...),
			Rows:         copyRows(raw.DataTable.Rows),
		}
		args = append(args, &crif.Argument{Value: dt.VariableName})
		parameters = append(parameters, &crif.StubParameter{Type: catalog.DataTableType, Name: "table"})
	}

	markLastArgument(args)
	if len(parameters) > 0 {
		parameters[len(parameters)-1].IsLast = true
	}

	method := stepgenMethodName(patternText)

	s.acc.addUnimplemented(&crif.UnimplementedStep{
		NormalizedKeyword: normalized.String(),
		Text:              patternText,
		Method:            method,
		Parameters:        parameters,
	})

	return &crif.Step{
		Keyword:   string(display),
		Text:      raw.Text,
		Owner:     crif.StubOwner,
		Method:    method,
		Arguments: args,
		DataTable: dt,
	}
}

func stepgenMethodName(patternText string) string {
	return GeneratedMethodName(stripPlaceholders(patternText))
}

func markLastArgument(args []*crif.Argument) {
	if len(args) == 0 {
		return
	}
	for _, a := range args {
		a.IsLast = false
	}
	args[len(args)-1].IsLast = true
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func isOutlinePlaceholder(token string) bool {
	return len(token) >= 2 && token[0] == '<' && token[len(token)-1] == '>'
}

func stripAngles(token string) string {
	return token[1 : len(token)-1]
}

func isQuoted(token string) bool {
	return len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"'
}

type tokenKind int

const (
	tokenOutline tokenKind = iota
	tokenQuoted
	tokenInteger
)

type scannedToken struct {
	kind  tokenKind
	value string
	raw   string
	start int
	end   int
}

type replacement struct {
	start, end int
	text       string
}

var tokenExp = regexp.MustCompile(`<\w+>|"[^"]*"|\b\d+\b`)

// scanTokens finds, in left-to-right textual order, every scenario-outline
// placeholder, quoted phrase, and bare integer literal in text. Integers
// inside a quoted phrase or an outline placeholder are not reported
// separately, because the scan is non-overlapping and leftmost-first.
func scanTokens(text string) []scannedToken {
	matches := tokenExp.FindAllStringIndex(text, -1)
	tokens := make([]scannedToken, 0, len(matches))
	for _, m := range matches {
		raw := text[m[0]:m[1]]
		switch {
		case raw[0] == '<':
			tokens = append(tokens, scannedToken{kind: tokenOutline, value: stripAngles(raw), raw: raw, start: m[0], end: m[1]})
		case raw[0] == '"':
			tokens = append(tokens, scannedToken{kind: tokenQuoted, value: raw, raw: raw, start: m[0], end: m[1]})
		default:
			tokens = append(tokens, scannedToken{kind: tokenInteger, value: raw, raw: raw, start: m[0], end: m[1]})
		}
	}
	return tokens
}

func applyReplacements(text string, reps []replacement) string {
	var b strings.Builder
	cursor := 0
	for _, r := range reps {
		b.WriteString(text[cursor:r.start])
		b.WriteString(r.text)
		cursor = r.end
	}
	b.WriteString(text[cursor:])
	return b.String()
}
