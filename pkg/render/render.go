// Package render implements the Template Renderer: a pure, side-effect-free
// projection of a CRIF tree into source text through a logic-less
// Mustache-family template.
//
// This package wires github.com/cbroglie/mustache (see DESIGN.md). That
// library's context lookup is exact-match over Go struct fields and map
// keys; case-insensitive key lookup is required, so this package layers
// that on top by round-tripping the CRIF tree through encoding/json
// (which yields the canonical lowerCamelCase field names) and then
// duplicating every map key under its all-lowercase spelling and its
// upper-first (PascalCase) spelling. A template written entirely in one
// consistent casing — the canonical lowerCamelCase, PascalCase, or
// all-lowercase — resolves correctly; true per-character
// case-insensitivity for arbitrarily mixed casing is not attempted, and is
// recorded as an accepted limitation in DESIGN.md.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/weftgen/weft/pkg/crif"
)

// Render applies templateText to feature and returns the generated source
// text.
func Render(templateText string, feature *crif.Feature) (string, error) {
	ctx, err := toContext(feature)
	if err != nil {
		return "", fmt.Errorf("building render context for feature %q: %w", feature.FeatureName, err)
	}

	out, err := mustache.Render(templateText, ctx)
	if err != nil {
		return "", fmt.Errorf("rendering template for feature %q: %w", feature.FeatureName, err)
	}
	return out, nil
}

func toContext(feature *crif.Feature) (map[string]interface{}, error) {
	raw, err := json.Marshal(feature)
	if err != nil {
		return nil, err
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	return withLowercaseAliases(decoded).(map[string]interface{}), nil
}

func withLowercaseAliases(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val)*2)
		for k, child := range val {
			cv := withLowercaseAliases(child)
			out[k] = cv
			lower := strings.ToLower(k)
			if _, exists := out[lower]; !exists {
				out[lower] = cv
			}
			if k != "" {
				upperFirst := strings.ToUpper(k[:1]) + k[1:]
				if _, exists := out[upperFirst]; !exists {
					out[upperFirst] = cv
				}
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = withLowercaseAliases(e)
		}
		return out
	default:
		return val
	}
}
