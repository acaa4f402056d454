// Package featurefile finds and parses Gherkin feature files for the
// driver. Discovery skips dot-directories (.git, .weft-cache, …) rather
// than walking them, checks ctx between directories so a generate run can
// be cancelled mid-scan, and wraps every failure with fmt.Errorf instead of
// logging and continuing — callers decide how a scan failure is reported,
// the same convention the rest of this module's I/O follows.
package featurefile

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

// Extension is the file suffix that marks a Gherkin feature file.
const Extension = ".feature"

// Discover walks each of directories and returns every feature file found,
// sorted for a deterministic generation order across runs.
func Discover(ctx context.Context, directories []string) ([]string, error) {
	var files []string

	for _, dir := range directories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("walking %s: %w", path, err)
			}
			if entry.IsDir() {
				if path != dir && strings.HasPrefix(entry.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(entry.Name(), Extension) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("searching %s for feature files: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Parse reads a Gherkin document from r.
func Parse(r io.Reader) (*messages.GherkinDocument, error) {
	newID := (&messages.Incrementing{}).NewId
	doc, err := gherkin.ParseGherkinDocument(r, newID)
	if err != nil {
		return nil, fmt.Errorf("parsing gherkin document: %w", err)
	}
	return doc, nil
}
