package assembler_test

import (
	"context"
	"testing"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/stretchr/testify/require"

	"github.com/weftgen/weft/pkg/assembler"
	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/crif"
	"github.com/weftgen/weft/pkg/keyword"
	"github.com/weftgen/weft/pkg/project"
)

func step(kw, text string) *messages.Step {
	return &messages.Step{Keyword: kw, Text: text}
}

func tag(name string) *messages.Tag {
	return &messages.Tag{Name: name}
}

func row(cells ...string) *messages.TableRow {
	out := &messages.TableRow{}
	for _, c := range cells {
		out.Cells = append(out.Cells, &messages.TableCell{Value: c})
	}
	return out
}

func TestAssembleEmptyFeatureHasNoDefaultRule(t *testing.T) {
	doc := &messages.GherkinDocument{Feature: &messages.Feature{Name: "Empty"}}
	f, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "empty", assembler.Options{})
	require.NoError(t, err)
	require.Empty(t, f.Rules)
}

func TestAssembleBackgroundOnlyFeatureSynthesizesEmptyDefaultRule(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "BG only",
			Children: []*messages.FeatureChild{
				{Background: &messages.Background{Steps: []*messages.Step{step("Given ", "I am logged in")}}},
			},
		},
	}
	f, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "bg", assembler.Options{})
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	require.Equal(t, crif.DefaultRuleName, f.Rules[0].Name)
	require.Empty(t, f.Rules[0].Scenarios)
}

func TestAssembleDirectScenariosGoUnderDefaultRule(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{Name: "S1", Steps: []*messages.Step{step("Given ", "I am logged in")}}},
				{Scenario: &messages.Scenario{Name: "S2", Steps: []*messages.Step{step("Given ", "I am logged in")}}},
			},
		},
	}
	cat := catalog.New([]*catalog.Definition{
		{Kind: keyword.Given, Pattern: "I am logged in", MethodName: "M", OwnerClass: "C", OwnerNamespace: "N"},
	})
	f, _, err := assembler.Assemble(context.Background(), doc, cat, nil, "f", assembler.Options{})
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	require.Equal(t, crif.DefaultRuleName, f.Rules[0].Name)
	require.Len(t, f.Rules[0].Scenarios, 2)
}

func TestAssembleTagsSetNamespaceAndBaseClass(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Tags: []*messages.Tag{tag("@namespace:My.NS"), tag("@baseclass:Some.Pkg.Base")},
		},
	}
	f, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{})
	require.NoError(t, err)
	require.Equal(t, "My.NS", f.Namespace)
	require.Equal(t, "Base", f.BaseClass)
	require.Contains(t, f.Usings, "Some.Pkg")
}

func TestAssembleProjectDefaultsFillGaps(t *testing.T) {
	doc := &messages.GherkinDocument{Feature: &messages.Feature{Name: "F"}}
	meta := &project.Metadata{
		GeneratedNamespace: "Default.NS",
		DefaultTestBase:    &project.TestBase{SimpleName: "Base", Namespace: "Default.Base.NS"},
	}
	f, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), meta, "f", assembler.Options{})
	require.NoError(t, err)
	require.Equal(t, "Default.NS", f.Namespace)
	require.Equal(t, "Base", f.BaseClass)
	require.Contains(t, f.Usings, "Default.Base.NS")
}

func TestAssembleScenarioOutline(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{
					Name:  "Outline",
					Steps: []*messages.Step{step("Given ", "I have <amount> dollars")},
					Examples: []*messages.Examples{
						{
							TableHeader: row("amount"),
							TableBody:   []*messages.TableRow{row("100"), row("200")},
						},
					},
				}},
			},
		},
	}
	cat := catalog.New([]*catalog.Definition{
		{Kind: keyword.Given, Pattern: "I have {amount} dollars", MethodName: "M", OwnerClass: "C", OwnerNamespace: "N",
			Params: []catalog.Param{{Name: "amount", Type: "int"}}},
	})
	f, _, err := assembler.Assemble(context.Background(), doc, cat, nil, "f", assembler.Options{})
	require.NoError(t, err)

	sc := f.Rules[0].Scenarios[0]
	require.Equal(t, []*crif.Parameter{{Type: "string", Name: "amount", IsLast: true}}, sc.Parameters)
	require.Equal(t, []string{`"100"`, `"200"`}, sc.TestCases)
	require.Equal(t, []*crif.Argument{{Value: "amount", IsLast: true}}, sc.Steps[0].Arguments)
}

func TestAssembleExamplesWidthMismatchSkipsScenarioOnly(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{
					Name:  "Bad outline",
					Steps: []*messages.Step{step("Given ", "I have <amount> dollars")},
					Examples: []*messages.Examples{
						{TableHeader: row("amount"), TableBody: []*messages.TableRow{row("100", "200")}},
					},
				}},
				{Scenario: &messages.Scenario{Name: "Fine", Steps: nil}},
			},
		},
	}
	f, diags, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{})
	require.NoError(t, err)
	require.Len(t, f.Rules[0].Scenarios, 1)
	require.Equal(t, "Fine", f.Rules[0].Scenarios[0].Name)
	require.NotEmpty(t, diags)
}

func TestAssembleUtilityImportAddedOnce(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{Name: "S", Steps: []*messages.Step{step("Given ", "unbound step")}}},
			},
		},
	}
	f, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{})
	require.NoError(t, err)

	count := 0
	for _, u := range f.Usings {
		if u == crif.UtilityImportPlaceholder {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestAssembleUnknownKeywordFailsWholeFeature(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{Name: "S", Steps: []*messages.Step{step("Maybe ", "something")}}},
			},
		},
	}
	_, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{})
	require.Error(t, err)
}

func TestAssembleMissingFeatureFails(t *testing.T) {
	_, _, err := assembler.Assemble(context.Background(), &messages.GherkinDocument{}, catalog.New(nil), nil, "f", assembler.Options{})
	require.Error(t, err)
}

func TestAssembleExplicitTagPrecedence(t *testing.T) {
	cases := []struct {
		name         string
		tags         []*messages.Tag
		wantExplicit bool
		wantReason   string
	}{
		{
			name:         "bare explicit tag sets no reason",
			tags:         []*messages.Tag{tag("@explicit")},
			wantExplicit: true,
			wantReason:   "",
		},
		{
			name:         "explicit tag with reason carries it through",
			tags:         []*messages.Tag{tag("@explicit:needs_manual_review")},
			wantExplicit: true,
			wantReason:   "needs_manual_review",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := &messages.GherkinDocument{
				Feature: &messages.Feature{
					Name: "F",
					Children: []*messages.FeatureChild{
						{Scenario: &messages.Scenario{
							Name:  "S",
							Tags:  tc.tags,
							Steps: []*messages.Step{step("Given ", "I am logged in")},
						}},
					},
				},
			}
			// The step is left unmatched so the stub-derived reason competes
			// with the tag; the tag must win.
			cat := catalog.New(nil)
			f, _, err := assembler.Assemble(context.Background(), doc, cat, nil, "f", assembler.Options{})
			require.NoError(t, err)

			sc := f.Rules[0].Scenarios[0]
			require.Equal(t, tc.wantExplicit, sc.IsExplicit)
			require.Equal(t, tc.wantReason, sc.ExplicitReason)
		})
	}
}

func TestAssembleTagFilterDropsNonMatchingScenarios(t *testing.T) {
	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Tags: []*messages.Tag{tag("@feature")},
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{Name: "Smoke", Tags: []*messages.Tag{tag("@smoke")}, Steps: nil}},
				{Scenario: &messages.Scenario{Name: "Slow", Tags: []*messages.Tag{tag("@slow")}, Steps: nil}},
				{Rule: &messages.Rule{
					Name: "R",
					Tags: []*messages.Tag{tag("@rule")},
					Children: []*messages.RuleChild{
						{Scenario: &messages.Scenario{Name: "RuleScenario", Tags: nil, Steps: nil}},
					},
				}},
			},
		},
	}

	include := func(want string) func(tags []string) bool {
		return func(tags []string) bool {
			for _, t := range tags {
				if t == want {
					return true
				}
			}
			return false
		}
	}

	f, _, err := assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{TagFilter: include("@smoke")})
	require.NoError(t, err)
	require.Len(t, f.Rules[0].Scenarios, 1)
	require.Equal(t, "Smoke", f.Rules[0].Scenarios[0].Name)

	f, _, err = assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{TagFilter: include("@feature")})
	require.NoError(t, err)
	var names []string
	for _, r := range f.Rules {
		for _, sc := range r.Scenarios {
			names = append(names, sc.Name)
		}
	}
	require.ElementsMatch(t, []string{"Smoke", "Slow", "RuleScenario"}, names)

	f, _, err = assembler.Assemble(context.Background(), doc, catalog.New(nil), nil, "f", assembler.Options{TagFilter: include("@rule")})
	require.NoError(t, err)
	names = nil
	for _, r := range f.Rules {
		for _, sc := range r.Scenarios {
			names = append(names, sc.Name)
		}
	}
	require.Equal(t, []string{"RuleScenario"}, names)
}

func TestAssembleCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &messages.GherkinDocument{
		Feature: &messages.Feature{
			Name: "F",
			Children: []*messages.FeatureChild{
				{Scenario: &messages.Scenario{Name: "S", Steps: nil}},
			},
		},
	}
	_, _, err := assembler.Assemble(ctx, doc, catalog.New(nil), nil, "f", assembler.Options{})
	require.ErrorIs(t, err, assembler.ErrCancelled)
}
