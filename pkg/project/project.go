// Package project carries the project-level defaults supplied once per
// build by the host. The driver loads these from a
// weft.yaml config file using gopkg.in/yaml.v3, the same library
// eykd-prosemark-go uses for its own project config.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// TestBase names the project's designated default base class for generated
// test classes.
type TestBase struct {
	SimpleName string `yaml:"simpleName"`
	Namespace  string `yaml:"namespace"`
	FullName   string `yaml:"fullName"`
}

// Metadata is the project-level defaults the CRIF assembler falls back to
// when a feature's tags do not supply an explicit value.
type Metadata struct {
	GeneratedNamespace string    `yaml:"generatedNamespace"`
	DefaultTestBase    *TestBase `yaml:"defaultTestBase"`

	// TemplatePath and UtilityImport configure the driver; the core itself
	// only ever sees the fields above.
	TemplatePath  string `yaml:"templatePath"`
	UtilityImport string `yaml:"utilityImport"`
}

// Load reads project metadata from a weft.yaml file at path.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project config %s: %w", path, err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing project config %s: %w", path, err)
	}
	return &meta, nil
}

// DetectGeneratedNamespace derives a default generated-test namespace from
// the module path declared in the nearest go.mod above dir, for use when
// weft.yaml does not set generatedNamespace explicitly.
func DetectGeneratedNamespace(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	current := absDir
	for {
		goModPath := filepath.Join(current, "go.mod")
		data, readErr := os.ReadFile(goModPath)
		if readErr == nil {
			modFile, parseErr := modfile.Parse(goModPath, data, nil)
			if parseErr != nil {
				return "", fmt.Errorf("parsing %s: %w", goModPath, parseErr)
			}
			return modFile.Module.Mod.Path + "/generated", nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		current = parent
	}
}
