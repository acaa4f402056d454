// Package weft orchestrates the whole core pipeline: Gherkin document +
// step catalog + project metadata + template text goes in, generated
// source text (plus the CRIF debug artifact and caller-facing diagnostics)
// comes out.
package weft

import (
	"context"
	"fmt"

	messages "github.com/cucumber/messages/go/v21"

	"github.com/weftgen/weft/pkg/assembler"
	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/crif"
	"github.com/weftgen/weft/pkg/diag"
	"github.com/weftgen/weft/pkg/project"
	"github.com/weftgen/weft/pkg/render"
)

// Input bundles the core's external inputs.
type Input struct {
	Document *messages.GherkinDocument
	Catalog  *catalog.Catalog
	Project  *project.Metadata
	FileName string
	Template string
	Options  assembler.Options
}

// Result bundles the core's external outputs.
type Result struct {
	Feature     *crif.Feature
	Source      string
	DebugJSON   []byte
	Diagnostics []diag.Diagnostic
}

// Compile runs the whole pipeline for one feature document. A feature-
// global failure (malformed AST, unknown keyword, cancellation, template
// failure) returns a nil Result and a non-nil error; no partial output is
// produced.
func Compile(ctx context.Context, in Input) (*Result, error) {
	feature, diagnostics, err := assembler.Assemble(ctx, in.Document, in.Catalog, in.Project, in.FileName, in.Options)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, assembler.ErrCancelled
	default:
	}

	source, err := render.Render(in.Template, feature)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", feature.FeatureName, err)
	}

	debugJSON, err := feature.DebugJSON()
	if err != nil {
		return nil, fmt.Errorf("feature %q: marshaling debug artifact: %w", feature.FeatureName, err)
	}

	return &Result{
		Feature:     feature,
		Source:      source,
		DebugJSON:   debugJSON,
		Diagnostics: diagnostics,
	}, nil
}
