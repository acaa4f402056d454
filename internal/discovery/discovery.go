// Package discovery implements the external step-definition analyzer: it
// scans a host Go project for step definitions and produces the catalog the
// core consumes. It walks directories, parses doc comments off func decls,
// and resolves each decl's import path from go.mod, using a method-receiver
// convention and a typed-placeholder doc syntax.
//
// A step definition is any method carrying a doc comment of the form:
//
//	// @weft:given `I have {amount:int} dollars in {account}`
//	func (s *AccountSteps) IHaveDollarsInAccount(amount int, account string) error { ... }
//
// `@weft:given`, `@weft:when`, and `@weft:then` select the definition's
// kind. A placeholder may carry an explicit `{name:type}` type annotation;
// placeholders without one default to "string". The receiver's type name
// becomes the definition's owner class, and the package's import path
// (resolved from the nearest go.mod, never by shelling out to "go list")
// becomes its owner namespace.
package discovery

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strings"

	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/keyword"
)

const (
	givenPrefix = "@weft:given"
	whenPrefix  = "@weft:when"
	thenPrefix  = "@weft:then"
)

var prefixKinds = map[string]keyword.Kind{
	givenPrefix: keyword.Given,
	whenPrefix:  keyword.When,
	thenPrefix:  keyword.Then,
}

var typedPlaceholder = regexp.MustCompile(`\{(\w+)(?::(\w+))?\}`)

// Scan walks root and every subdirectory for Go source files, returning one
// catalog.Definition per annotated step method it finds. Definitions are
// returned in a stable order (directory walk order, then package name and
// file name order within a directory, then declaration order within a file)
// so a catalog built from them resolves ties deterministically.
func Scan(ctx context.Context, root string) ([]*catalog.Definition, error) {
	dirs, err := subdirectoriesOf(root)
	if err != nil {
		return nil, fmt.Errorf("listing subdirectories of %s: %w", root, err)
	}
	dirs = append([]string{root}, dirs...)

	var defs []*catalog.Definition
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fset := token.NewFileSet()
		packages, err := parser.ParseDir(fset, dir, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", dir, err)
		}
		if len(packages) == 0 {
			continue
		}

		importPath, err := importPathOf(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving import path of %s: %w", dir, err)
		}

		pkgNames := make([]string, 0, len(packages))
		for name := range packages {
			pkgNames = append(pkgNames, name)
		}
		sort.Strings(pkgNames)
		for _, pkgName := range pkgNames {
			pkg := packages[pkgName]
			fileNames := make([]string, 0, len(pkg.Files))
			for name := range pkg.Files {
				fileNames = append(fileNames, name)
			}
			sort.Strings(fileNames)
			for _, fileName := range fileNames {
				file := pkg.Files[fileName]
				for _, decl := range file.Decls {
					fn, ok := decl.(*ast.FuncDecl)
					if !ok {
						continue
					}
					def, found, err := definitionFromFunc(fn, importPath)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", fset.Position(fn.Pos()), err)
					}
					if found {
						defs = append(defs, def)
					}
				}
			}
		}
	}

	return defs, nil
}

func definitionFromFunc(fn *ast.FuncDecl, importPath string) (*catalog.Definition, bool, error) {
	prefix, raw := commentTag(fn)
	if prefix == "" {
		return nil, false, nil
	}

	kind, ok := prefixKinds[prefix]
	if !ok {
		return nil, false, fmt.Errorf("unknown step tag %q", prefix)
	}

	ownerClass := receiverTypeName(fn)
	if ownerClass == "" {
		return nil, false, fmt.Errorf("function %s carries a step tag but has no method receiver", fn.Name.Name)
	}

	params, pattern := extractParams(raw)

	return &catalog.Definition{
		Kind:           kind,
		Pattern:        pattern,
		MethodName:     fn.Name.Name,
		OwnerClass:     ownerClass,
		OwnerNamespace: importPath,
		Params:         params,
	}, true, nil
}

// commentTag returns the matched tag prefix and the backtick-quoted pattern
// text that follows it on the same doc-comment line, or ("", "") if fn has
// no step tag.
func commentTag(fn *ast.FuncDecl) (prefix, pattern string) {
	if fn.Doc == nil {
		return "", ""
	}
	for _, c := range fn.Doc.List {
		text := strings.TrimPrefix(c.Text, "//")
		text = strings.TrimSpace(text)
		for p := range prefixKinds {
			if !strings.HasPrefix(text, p) {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(text, p))
			start := strings.Index(rest, "`")
			end := strings.LastIndex(rest, "`")
			if start == -1 || end == -1 || end <= start {
				continue
			}
			return p, rest[start+1 : end]
		}
	}
	return "", ""
}

func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	return identOfType(fn.Recv.List[0].Type)
}

func identOfType(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return identOfType(e.X)
	default:
		return ""
	}
}

// extractParams finds every {name} or {name:type} placeholder in raw, in
// left-to-right order, and returns the catalog parameter list alongside the
// plain {name} pattern text the core's pattern compiler expects — the
// compiler itself is type-agnostic; typing is carried here as signature
// metadata only.
func extractParams(raw string) ([]catalog.Param, string) {
	matches := typedPlaceholder.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return nil, raw
	}

	params := make([]catalog.Param, 0, len(matches))
	var b strings.Builder
	cursor := 0
	for _, m := range matches {
		name := raw[m[2]:m[3]]
		typ := "string"
		if m[4] != -1 {
			typ = raw[m[4]:m[5]]
		}
		params = append(params, catalog.Param{Name: name, Type: typ})

		b.WriteString(raw[cursor:m[0]])
		b.WriteString("{" + name + "}")
		cursor = m[1]
	}
	b.WriteString(raw[cursor:])

	return params, b.String()
}
