package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "ccdepot"

// layerRule lists what a layer of a context may import besides the standard
// library. Own entries are relative to the context root.
type layerRule struct {
	own       []string
	shared    []string
	libraries []string
}

var layerRules = map[string]layerRule{
	"domain": {
		own:       []string{"domain"},
		libraries: []string{"github.com/beevik/etree"},
	},
	"ports": {
		own:    []string{"domain", "ports"},
		shared: []string{modulePath + "/contracts"},
	},
	"application": {
		own:    []string{"application", "domain", "ports"},
		shared: []string{modulePath + "/contracts"},
		libraries: []string{
			"github.com/avast/retry-go/v4",
			"github.com/beevik/etree",
			"golang.org/x/sync",
			"golang.org/x/text",
		},
	},
	"transport": {
		own: []string{"transport"},
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	violations, err := collectViolations("contexts")
	if err != nil {
		fmt.Fprintf(os.Stderr, "walk contexts: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations checks every non-test file under contexts/<area>/<service>/<layer>.
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		contextRoot := strings.Join([]string{modulePath, "contexts", parts[1], parts[2]}, "/")
		found, err := checkFile(path, parts[3], contextRoot)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	return violations, err
}

func checkFile(path string, layer string, contextRoot string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	rule, layered := layerRules[layer]

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		report := func(reason string) {
			violations = append(violations, violation{
				File:   filepath.ToSlash(path),
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, contextRoot) {
			report("contexts must not import each other; bridge them in internal/app/bootstrap")
			continue
		}
		if !layered || isStdlib(importPath) {
			continue
		}
		if !rule.allows(importPath, contextRoot) {
			report(layer + " import is outside its allowlist")
		}
	}
	return violations, nil
}

func (r layerRule) allows(importPath string, contextRoot string) bool {
	for _, own := range r.own {
		if hasPrefix(importPath, contextRoot+"/"+own) {
			return true
		}
	}
	for _, prefix := range append(r.shared, r.libraries...) {
		if hasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any path whose first element has no dot as standard library.
func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
