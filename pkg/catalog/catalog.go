// Package catalog indexes step definitions discovered by the external
// static analyzer and resolves a (normalized kind, step text) pair to the
// best-matching definition.
package catalog

import (
	"strings"

	"github.com/weftgen/weft/pkg/keyword"
	"github.com/weftgen/weft/pkg/pattern"
)

// DataTableType is the declared type of a step-definition parameter that
// binds a Gherkin data table rather than a placeholder capture.
const DataTableType = "DataTable"

// Param describes one declared parameter of a step definition.
type Param struct {
	Name string
	Type string
}

// Definition is a single step definition surfaced by the external analyzer.
type Definition struct {
	Kind           keyword.Kind
	Pattern        string
	MethodName     string
	OwnerClass     string
	OwnerNamespace string
	Params         []Param

	matcher          *pattern.Matcher
	placeholderCount int
}

// HasDataTable reports whether the last declared parameter binds a data
// table.
func (d *Definition) HasDataTable() bool {
	if len(d.Params) == 0 {
		return false
	}
	return d.Params[len(d.Params)-1].Type == DataTableType
}

// CaptureParams returns the declared parameters that correspond to
// placeholder captures, i.e. every parameter except a trailing DataTable
// parameter.
func (d *Definition) CaptureParams() []Param {
	if d.HasDataTable() {
		return d.Params[:len(d.Params)-1]
	}
	return d.Params
}

func (d *Definition) compile() {
	d.placeholderCount = pattern.PlaceholderCount(d.Pattern)
	if d.placeholderCount == 0 {
		return
	}
	m, err := pattern.Compile(d.Pattern)
	if err != nil {
		// Fail-closed: a pathological pattern never matches.
		d.matcher = pattern.MustNeverMatch()
		return
	}
	d.matcher = m
}

// Catalog is an immutable, ordered collection of step definitions queried
// by normalized kind and step text.
type Catalog struct {
	defs []*Definition
}

// New builds a Catalog from the definitions discovered by the external
// analyzer. Definition order is preserved; it is the tie-break order used
// by Find.
func New(defs []*Definition) *Catalog {
	for _, d := range defs {
		d.compile()
	}
	return &Catalog{defs: defs}
}

// Find resolves (kind, text) to the best-matching definition using a
// two-phase policy: an exact case-insensitive match among zero-placeholder
// candidates first, then the first pattern-matcher acceptance among
// candidates with one or more placeholders, in insertion order in both
// phases.
func (c *Catalog) Find(kind keyword.Kind, text string) (def *Definition, args []string, ok bool) {
	for _, d := range c.defs {
		if d.Kind != kind || d.placeholderCount != 0 {
			continue
		}
		if strings.EqualFold(d.Pattern, text) {
			return d, nil, true
		}
	}

	for _, d := range c.defs {
		if d.Kind != kind || d.placeholderCount == 0 {
			continue
		}
		if captured, matched := d.matcher.Match(text); matched {
			return d, captured, true
		}
	}

	return nil, nil, false
}
