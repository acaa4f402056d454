package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dave/jennifer/jen"
	"github.com/spf13/cobra"

	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/crif"
)

var (
	scaffoldCRIFPath string
	scaffoldPackage  string
	scaffoldOut      string
)

// scaffoldCmd emits a Go source file with one method stub per entry in a
// CRIF artifact's Unimplemented list, each carrying the @weft doc-comment
// tag internal/discovery looks for, so a filled-in implementation is picked
// up automatically on the next generate run.
var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Generate step-method stubs for a CRIF artifact's unimplemented steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScaffold(cmd.OutOrStdout())
	},
}

func init() {
	scaffoldCmd.Flags().StringVar(&scaffoldCRIFPath, "crif", "", "path to a .crif.json debug artifact")
	scaffoldCmd.Flags().StringVar(&scaffoldPackage, "package", "steps", "package name for the generated stub file")
	scaffoldCmd.Flags().StringVar(&scaffoldOut, "out", "", "output path (default: stdout)")
	scaffoldCmd.MarkFlagRequired("crif")
	rootCmd.AddCommand(scaffoldCmd)
}

func runScaffold(w io.Writer) error {
	data, err := os.ReadFile(scaffoldCRIFPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", scaffoldCRIFPath, err)
	}

	var feature crif.Feature
	if err := json.Unmarshal(data, &feature); err != nil {
		return fmt.Errorf("parsing %s: %w", scaffoldCRIFPath, err)
	}

	if len(feature.Unimplemented) == 0 {
		_, err := fmt.Fprintln(w, "// nothing to scaffold: no unimplemented steps")
		return err
	}

	file := buildScaffoldFile(scaffoldPackage, feature.Unimplemented)

	if scaffoldOut == "" {
		return file.Render(w)
	}
	return file.Save(scaffoldOut)
}

func buildScaffoldFile(pkgName string, steps []*crif.UnimplementedStep) *jen.File {
	file := jen.NewFile(pkgName)
	file.HeaderComment("Generated scaffold. Fill in each method body, then rerun weft generate.")

	file.Type().Id("Steps").Struct()

	for _, step := range steps {
		tagPrefix := tagPrefixFor(step.NormalizedKeyword)

		params := make([]jen.Code, 0, len(step.Parameters))
		for _, p := range step.Parameters {
			params = append(params, jen.Id(p.Name).Id(goType(p.Type)))
		}

		file.Commentf("%s `%s`", tagPrefix, stepTagPattern(step))
		file.Func().Params(jen.Id("s").Op("*").Id("Steps")).Id(step.Method).
			Params(params...).
			Error().
			Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(step.Method + " not implemented"))),
			)
	}

	return file
}

func stepTagPattern(step *crif.UnimplementedStep) string {
	pattern := step.Text
	for _, p := range step.Parameters {
		if p.Type == catalog.DataTableType {
			continue
		}
		pattern = replaceOnce(pattern, "{"+p.Name+"}", "{"+p.Name+":"+p.Type+"}")
	}
	return pattern
}

func replaceOnce(s, old, new string) string {
	idx := indexOf(s, old)
	if idx == -1 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func tagPrefixFor(normalizedKeyword string) string {
	switch normalizedKeyword {
	case "Given":
		return "@weft:given"
	case "When":
		return "@weft:when"
	default:
		return "@weft:then"
	}
}

func goType(t string) string {
	switch t {
	case catalog.DataTableType:
		return "[][]string"
	case "int":
		return "int"
	default:
		return "string"
	}
}
