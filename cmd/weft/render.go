package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftgen/weft/pkg/crif"
	"github.com/weftgen/weft/pkg/render"
)

var (
	renderCRIFPath     string
	renderTemplatePath string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a saved CRIF debug artifact against a template",
	Long: "Render reuses a feature's .crif.json debug artifact from a prior " +
		"`weft generate` run to let a template author iterate on a template " +
		"without re-running discovery or re-parsing Gherkin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd.OutOrStdout())
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderCRIFPath, "crif", "", "path to a .crif.json debug artifact")
	renderCmd.Flags().StringVar(&renderTemplatePath, "template", "", "path to a Mustache-family template")
	renderCmd.MarkFlagRequired("crif")
	renderCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(renderCmd)
}

func runRender(w io.Writer) error {
	crifBytes, err := os.ReadFile(renderCRIFPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", renderCRIFPath, err)
	}

	var feature crif.Feature
	if err := json.Unmarshal(crifBytes, &feature); err != nil {
		return fmt.Errorf("parsing %s: %w", renderCRIFPath, err)
	}

	templateBytes, err := os.ReadFile(renderTemplatePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", renderTemplatePath, err)
	}

	source, err := render.Render(string(templateBytes), &feature)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, source)
	return err
}
