package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"

	"github.com/weftgen/weft/internal/discovery"
	"github.com/weftgen/weft/internal/featurefile"
	"github.com/weftgen/weft/internal/runcache"
	"github.com/weftgen/weft/internal/ui"
	"github.com/weftgen/weft/pkg/assembler"
	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/diag"
	"github.com/weftgen/weft/pkg/project"
	"github.com/weftgen/weft/pkg/weft"
)

var (
	generateConfigPath string
	generateStepsDir   string
	generateCacheDB    string
	generateOutDir     string
	generateTags       string
)

var generateCmd = &cobra.Command{
	Use:   "generate [<feature-dir>...]",
	Short: "Generate test sources from Gherkin feature files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		return runGenerate(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateConfigPath, "config", "weft.yaml", "project config path")
	generateCmd.Flags().StringVar(&generateStepsDir, "steps", ".", "directory to scan for step definitions")
	generateCmd.Flags().StringVar(&generateCacheDB, "cache", ".weft-cache.db", "run cache database path")
	generateCmd.Flags().StringVar(&generateOutDir, "out", ".", "directory to write generated sources into")
	generateCmd.Flags().StringVar(&generateTags, "tags", "", "Cucumber tag expression selecting which scenarios to generate")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(ctx context.Context, w io.Writer, featureDirs []string) error {
	runID, err := newRunID()
	if err != nil {
		return err
	}
	ui.RunHeader(w, runID)

	meta, err := loadProjectMetadata(generateConfigPath, generateStepsDir)
	if err != nil {
		return err
	}

	templateText, err := os.ReadFile(meta.TemplatePath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", meta.TemplatePath, err)
	}

	defs, err := discovery.Scan(ctx, generateStepsDir)
	if err != nil {
		return fmt.Errorf("discovering step definitions: %w", err)
	}
	cat := catalog.New(defs)

	cache, err := runcache.Open(generateCacheDB)
	if err != nil {
		return err
	}
	defer cache.Close()

	tagFilter, err := compileTagFilter(generateTags)
	if err != nil {
		return err
	}

	files, err := featurefile.Discover(ctx, featureDirs)
	if err != nil {
		return fmt.Errorf("searching feature files: %w", err)
	}

	var generated, skipped, failed int
	for _, path := range files {
		status, err := generateOne(ctx, cache, cat, meta, string(templateText), path, tagFilter, w)
		if err != nil {
			ui.ErrorLine(w, fmt.Sprintf("[%s] %s: %v", runID, path, err))
			failed++
			continue
		}
		switch status {
		case statusGenerated:
			generated++
		case statusSkipped:
			skipped++
		}
	}

	ui.SummaryLine(w, generated, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d feature file(s) failed to generate", failed)
	}
	return nil
}

type generationStatus int

const (
	statusGenerated generationStatus = iota
	statusSkipped
)

// compileTagFilter parses a Cucumber tag expression into a scenario
// inclusion predicate for assembler.Options.TagFilter. An empty expression
// includes every scenario, the same as running with no tag filter at all.
func compileTagFilter(expr string) (func(tags []string) bool, error) {
	if expr == "" {
		return nil, nil
	}
	evaluatable, err := tagexpressions.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing tag expression %q: %w", expr, err)
	}
	return evaluatable.Evaluate, nil
}

func generateOne(ctx context.Context, cache *runcache.Cache, cat *catalog.Catalog, meta *project.Metadata, templateText, path string, tagFilter func(tags []string) bool, w io.Writer) (generationStatus, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading feature file: %w", err)
	}

	hash := runcache.Hash(content)
	unchanged, err := cache.IsUnchanged(path, hash)
	if err != nil {
		return 0, err
	}
	if unchanged {
		ui.SkippedLine(w, path)
		return statusSkipped, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	doc, err := featurefile.Parse(f)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("parsing feature: %w", err)
	}

	result, err := weft.Compile(ctx, weft.Input{
		Document: doc,
		Catalog:  cat,
		Project:  meta,
		FileName: strings.TrimSuffix(filepath.Base(path), featurefile.Extension),
		Template: templateText,
		Options:  assembler.Options{UtilityImport: meta.UtilityImport, TagFilter: tagFilter},
	})
	if err != nil {
		return 0, err
	}

	for _, d := range result.Diagnostics {
		if d.Level == diag.Error {
			ui.ErrorLine(w, d.Message)
		} else {
			ui.WarningLine(w, d.Message)
		}
	}

	outPath := filepath.Join(generateOutDir, result.Feature.FileName+"_test.go")
	if err := os.WriteFile(outPath, []byte(result.Source), 0o644); err != nil {
		return 0, fmt.Errorf("writing generated source: %w", err)
	}
	debugPath := filepath.Join(generateOutDir, result.Feature.FileName+".crif.json")
	if err := os.WriteFile(debugPath, result.DebugJSON, 0o644); err != nil {
		return 0, fmt.Errorf("writing debug artifact: %w", err)
	}

	if err := cache.Record(path, hash); err != nil {
		return 0, err
	}

	ui.GeneratedLine(w, path)
	return statusGenerated, nil
}

// newRunID returns a correlation id for one weft generate invocation, so a
// warning or error line can be traced back to the run that produced it when
// several runs' output is interleaved (CI logs, concurrent invocations).
func newRunID() (string, error) {
	v4, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generating run id: %w", err)
	}
	return v4.String(), nil
}

func loadProjectMetadata(configPath, stepsDir string) (*project.Metadata, error) {
	meta, err := project.Load(configPath)
	if err != nil {
		return nil, err
	}
	if meta.GeneratedNamespace == "" {
		ns, detectErr := project.DetectGeneratedNamespace(stepsDir)
		if detectErr == nil {
			meta.GeneratedNamespace = ns
		}
	}
	return meta, nil
}
