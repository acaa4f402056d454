// Package assembler walks a parsed Gherkin document once and produces the
// feature's Code-Ready Intermediate Form, delegating keyword normalization
// and step binding to stepgen and tag resolution to tagproc.
package assembler

import (
	"context"
	"fmt"
	"strings"

	messages "github.com/cucumber/messages/go/v21"

	"github.com/weftgen/weft/internal/ordered"
	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/crif"
	"github.com/weftgen/weft/pkg/diag"
	"github.com/weftgen/weft/pkg/project"
	"github.com/weftgen/weft/pkg/stepgen"
	"github.com/weftgen/weft/pkg/table"
	"github.com/weftgen/weft/pkg/tagproc"
)

const (
	explicitTag       = "@explicit"
	explicitReasonTag = "@explicit:"
)

// Options configures feature-independent knobs of the assembler.
type Options struct {
	// UtilityImport is the namespace added to Usings whenever a data table
	// or an unimplemented stub is present. Defaults to
	// crif.UtilityImportPlaceholder when empty.
	UtilityImport string

	// TagFilter, when set, is evaluated against a scenario's effective tag
	// set (its own tags plus its feature's and, if nested, its rule's) and
	// decides whether the scenario is compiled at all. A scenario for
	// which it returns false is dropped before step binding runs, so a
	// tag expression selects which scenarios get generated instead of
	// which get executed.
	TagFilter func(tags []string) bool
}

// ErrCancelled is returned when the supplied context is done at a checked
// boundary.
var ErrCancelled = fmt.Errorf("cancelled")

// Assemble walks doc and produces its CRIF. Feature-global failures (missing
// feature, malformed data tables, unknown step keywords, cancellation)
// abort the whole call and return a nil Feature. Scenario-scoped failures
// (width-mismatched Examples) are reported as error-level diagnostics and
// the offending scenario is skipped; other scenarios continue. A scenario
// excluded by opts.TagFilter is dropped silently, the same as an unmatched
// tag expression drops it at runtime.
func Assemble(ctx context.Context, doc *messages.GherkinDocument, cat *catalog.Catalog, meta *project.Metadata, fileName string, opts Options) (*crif.Feature, []diag.Diagnostic, error) {
	if doc == nil || doc.Feature == nil {
		return nil, nil, fmt.Errorf("malformed gherkin document: missing feature")
	}

	utilityImport := opts.UtilityImport
	if utilityImport == "" {
		utilityImport = crif.UtilityImportPlaceholder
	}

	feature := doc.Feature
	usings := ordered.NewStringSet()
	classes := ordered.NewStringSet()
	acc := stepgen.NewAccumulator()
	acc.Usings, acc.Classes = usings, classes

	featureTags := tagNamesOf(feature.Tags)
	tagResult := tagproc.Process(featureTags, meta, usings)

	out := &crif.Feature{
		Namespace:        tagResult.Namespace,
		BaseClass:        tagResult.BaseClass,
		FileName:         fileName,
		FeatureName:      feature.Name,
		DescriptionLines: splitDescription(feature.Description),
	}

	var diagnostics []diag.Diagnostic
	var rules []*crif.Rule
	var defaultRule *crif.Rule

	for _, child := range feature.Children {
		if err := checkCancelled(ctx); err != nil {
			return nil, diagnostics, err
		}

		switch {
		case child.Background != nil:
			bg, err := assembleBackground(child.Background, cat, acc)
			if err != nil {
				return nil, diagnostics, err
			}
			out.Background = bg

		case child.Rule != nil:
			r, ruleDiag, err := assembleRule(ctx, child.Rule, cat, acc, opts, featureTags)
			diagnostics = append(diagnostics, ruleDiag...)
			if err != nil {
				return nil, diagnostics, err
			}
			rules = append(rules, r)

		case child.Scenario != nil:
			if !includeScenario(opts, featureTags, child.Scenario.Tags) {
				continue
			}
			sc, scenarioErr, ok := assembleScenario(child.Scenario, cat, acc, nil, false)
			if scenarioErr != nil {
				return nil, diagnostics, scenarioErr
			}
			if !ok {
				diagnostics = append(diagnostics, diag.Diagnostic{
					Level:   diag.Error,
					Message: fmt.Sprintf("scenario %q: examples table width mismatch", child.Scenario.Name),
				})
				continue
			}
			if defaultRule == nil {
				defaultRule = &crif.Rule{Name: crif.DefaultRuleName}
				rules = append(rules, defaultRule)
			}
			defaultRule.Scenarios = append(defaultRule.Scenarios, sc)
		}
	}

	if len(rules) == 0 && len(feature.Children) > 0 {
		rules = append(rules, &crif.Rule{Name: crif.DefaultRuleName})
	}
	out.Rules = rules

	if err := checkCancelled(ctx); err != nil {
		return nil, diagnostics, err
	}

	out.Unimplemented = acc.Unimplemented()
	if len(out.Unimplemented) > 0 || hasAnyDataTable(out) {
		usings.Add(utilityImport)
	}
	out.Usings = usings.Values()
	out.Classes = classes.Values()

	if len(out.Unimplemented) > 0 {
		diagnostics = append(diagnostics, diag.Diagnostic{
			Level:   diag.Warning,
			Message: fmt.Sprintf("%d unimplemented step(s)", len(out.Unimplemented)),
		})
	}

	return out, diagnostics, nil
}

func assembleBackground(bg *messages.Background, cat *catalog.Catalog, acc *stepgen.Accumulator) (*crif.Background, error) {
	seq := stepgen.NewSequence(cat, acc)
	steps, err := processSteps(seq, bg.Steps)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	return &crif.Background{Steps: steps}, nil
}

// assembleRule processes one Gherkin rule. A rule-level background has no
// dedicated slot in CRIF.Rule (its shape is name/description/scenarios
// only); its steps are instead prepended to every scenario in the rule,
// which is how they would actually be emitted by the renderer — see
// DESIGN.md for this Open Question decision.
func assembleRule(ctx context.Context, r *messages.Rule, cat *catalog.Catalog, acc *stepgen.Accumulator, opts Options, featureTags []string) (*crif.Rule, []diag.Diagnostic, error) {
	out := &crif.Rule{Name: r.Name, Description: r.Description}
	ruleTags := append(append([]string{}, featureTags...), tagNamesOf(r.Tags)...)

	var ruleBackgroundSteps []*crif.Step
	var ruleBackgroundUnmatched bool
	var diagnostics []diag.Diagnostic

	for _, child := range r.Children {
		if err := checkCancelled(ctx); err != nil {
			return nil, diagnostics, err
		}

		if child.Background != nil {
			seq := stepgen.NewSequence(cat, acc)
			steps, err := processSteps(seq, child.Background.Steps)
			if err != nil {
				return nil, diagnostics, fmt.Errorf("rule %q background: %w", r.Name, err)
			}
			ruleBackgroundSteps = steps
			ruleBackgroundUnmatched = seq.SawUnmatched()
			continue
		}

		if child.Scenario != nil {
			if !includeScenario(opts, ruleTags, child.Scenario.Tags) {
				continue
			}
			sc, err, ok := assembleScenario(child.Scenario, cat, acc, ruleBackgroundSteps, ruleBackgroundUnmatched)
			if err != nil {
				return nil, diagnostics, err
			}
			if !ok {
				diagnostics = append(diagnostics, diag.Diagnostic{
					Level:   diag.Error,
					Message: fmt.Sprintf("scenario %q: examples table width mismatch", child.Scenario.Name),
				})
				continue
			}
			out.Scenarios = append(out.Scenarios, sc)
		}
	}

	return out, diagnostics, nil
}

// assembleScenario processes one scenario (or scenario outline). prependSteps
// are rule-background steps to splice in ahead of the scenario's own steps;
// prependUnmatched reports whether that background sequence itself saw an
// unmatched step, which also forces explicitness (the generated scenario
// would still carry a stub call).
//
// The returned bool is false exactly when the scenario's Examples table has
// an inconsistent width and must be skipped by the caller (err is nil in
// that case — it is a scenario-scoped soft failure, not a feature-global
// one).
func assembleScenario(s *messages.Scenario, cat *catalog.Catalog, acc *stepgen.Accumulator, prependSteps []*crif.Step, prependUnmatched bool) (*crif.Scenario, error, bool) {
	seq := stepgen.NewSequence(cat, acc)
	steps, err := processSteps(seq, s.Steps)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err), false
	}

	allSteps := make([]*crif.Step, 0, len(prependSteps)+len(steps))
	allSteps = append(allSteps, prependSteps...)
	allSteps = append(allSteps, steps...)

	sc := &crif.Scenario{
		Name:   s.Name,
		Method: stepgen.GeneratedMethodName(s.Name),
		Steps:  allSteps,
	}

	for _, tag := range s.Tags {
		switch {
		case tag.Name == explicitTag:
			sc.IsExplicit = true
		case strings.HasPrefix(tag.Name, explicitReasonTag):
			sc.IsExplicit = true
			sc.ExplicitReason = strings.TrimPrefix(tag.Name, explicitReasonTag)
		}
	}

	if (seq.SawUnmatched() || prependUnmatched) && !sc.IsExplicit {
		sc.IsExplicit = true
		sc.ExplicitReason = crif.DefaultStubReason
	}

	if len(s.Examples) > 0 {
		if err := applyExamples(sc, s.Examples); err != nil {
			return nil, nil, false
		}
	}

	return sc, nil, true
}

// applyExamples derives scenario-outline parameters from the first
// Examples block's header and test cases from every Examples block's data
// rows.
func applyExamples(sc *crif.Scenario, examples []*messages.Examples) error {
	first := table.FromExamples(examples[0].TableHeader, nil)
	headers := first.Headers()

	params := make([]*crif.Parameter, len(headers))
	for i, h := range headers {
		params[i] = &crif.Parameter{Type: "string", Name: h}
	}
	if len(params) > 0 {
		params[len(params)-1].IsLast = true
	}
	sc.Parameters = params

	var testCases []string
	for _, ex := range examples {
		t := table.FromExamples(ex.TableHeader, ex.TableBody)
		for _, row := range t.DataRows() {
			cells := row.Values()
			if len(cells) != len(headers) {
				return fmt.Errorf("examples table width mismatch: header has %d cells, row has %d", len(headers), len(cells))
			}
			quoted := make([]string, len(cells))
			for i, c := range cells {
				quoted[i] = `"` + c + `"`
			}
			testCases = append(testCases, strings.Join(quoted, ", "))
		}
	}
	sc.TestCases = testCases
	return nil
}

func processSteps(seq *stepgen.Sequence, steps []*messages.Step) ([]*crif.Step, error) {
	out := make([]*crif.Step, 0, len(steps))
	for _, st := range steps {
		raw, err := toRawStep(st)
		if err != nil {
			return nil, err
		}
		cs, err := seq.Process(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

func toRawStep(st *messages.Step) (stepgen.RawStep, error) {
	raw := stepgen.RawStep{RawKeyword: st.Keyword, Text: st.Text}

	if st.DataTable != nil && len(st.DataTable.Rows) > 0 {
		t := table.FromDataTable(st.DataTable)
		headers := t.Headers()
		rows := make([][]string, 0, t.Len()-1)
		for _, row := range t.DataRows() {
			cells := row.Values()
			if len(cells) != len(headers) {
				return raw, fmt.Errorf("malformed data table: header has %d cells, row has %d", len(headers), len(cells))
			}
			rows = append(rows, cells)
		}
		raw.DataTable = &stepgen.RawDataTable{Headers: headers, Rows: rows}
	}

	return raw, nil
}

func tagNamesOf(tags []*messages.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}
	return out
}

// includeScenario reports whether a scenario with its own tags, nested
// under inheritedTags (its feature's and, if any, its rule's already-
// flattened tag names), should be compiled. With no TagFilter configured
// every scenario is included.
func includeScenario(opts Options, inheritedTags []string, ownTags []*messages.Tag) bool {
	if opts.TagFilter == nil {
		return true
	}
	effective := append(append([]string{}, inheritedTags...), tagNamesOf(ownTags)...)
	return opts.TagFilter(effective)
}

func hasAnyDataTable(f *crif.Feature) bool {
	if f.Background != nil {
		for _, s := range f.Background.Steps {
			if s.DataTable != nil {
				return true
			}
		}
	}
	for _, r := range f.Rules {
		for _, sc := range r.Scenarios {
			for _, s := range sc.Steps {
				if s.DataTable != nil {
					return true
				}
			}
		}
	}
	return false
}

func splitDescription(description string) []string {
	if strings.TrimSpace(description) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(description, "\r\n", "\n"), "\n")
	return lines
}

func checkCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}
