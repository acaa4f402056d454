// Package tagproc implements the Tag Processor: it parses feature-level
// tags and merges project defaults beneath any explicit values, feature
// tags always winning.
package tagproc

import (
	"strings"

	"github.com/weftgen/weft/internal/ordered"
	"github.com/weftgen/weft/pkg/project"
)

const (
	namespacePrefix = "@namespace:"
	baseclassPrefix = "@baseclass:"
	usingPrefix     = "@using:"
)

// Result holds the fields the Tag Processor resolves, ready to be copied
// into a CRIF Feature by the assembler.
type Result struct {
	Namespace string
	BaseClass string
}

// Process scans feature-level tags in order, applying the recognized
// prefixes into result and using, then applies the project defaults for any
// field feature tags left unset. Unrecognized tags are ignored.
func Process(tags []string, meta *project.Metadata, using *ordered.StringSet) Result {
	var result Result

	for _, tag := range tags {
		switch {
		case strings.HasPrefix(tag, namespacePrefix):
			result.Namespace = strings.TrimPrefix(tag, namespacePrefix)
		case strings.HasPrefix(tag, baseclassPrefix):
			name := strings.TrimPrefix(tag, baseclassPrefix)
			if idx := strings.LastIndex(name, "."); idx >= 0 {
				using.Add(name[:idx])
				result.BaseClass = name[idx+1:]
			} else {
				result.BaseClass = name
			}
		case strings.HasPrefix(tag, usingPrefix):
			using.Add(strings.TrimPrefix(tag, usingPrefix))
		}
	}

	if meta != nil {
		if result.Namespace == "" && meta.GeneratedNamespace != "" {
			result.Namespace = meta.GeneratedNamespace
		}
		if result.BaseClass == "" && meta.DefaultTestBase != nil {
			result.BaseClass = meta.DefaultTestBase.SimpleName
			using.Add(meta.DefaultTestBase.Namespace)
		}
	}

	return result
}
