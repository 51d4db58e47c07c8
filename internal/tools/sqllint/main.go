// Command sqllint checks that every inline query constant starts with a
// `--sql <uuid>` audit line and that no two queries share a marker.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlStatementPattern = regexp.MustCompile(`(?is)^\s*(--[^\n]*\n\s*)?(select|insert|update|delete|with)\b`)
	uuidMarkerPattern   = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	pos     token.Position
	name    string
	message string
}

type linter struct {
	fset       *token.FileSet
	seen       map[string]token.Position
	violations []violation
}

func newLinter() *linter {
	return &linter{fset: token.NewFileSet(), seen: map[string]token.Position{}}
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	l := newLinter()
	for _, target := range targets {
		if err := l.lintPath(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}
	if l.report(os.Stderr) > 0 {
		os.Exit(1)
	}
}

func (l *linter) lintPath(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil
		}
		return l.lintFile(target, nil)
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		return l.lintFile(path, nil)
	})
}

// lintFile inspects string constants and package-level vars. src may be nil to
// read from path.
func (l *linter) lintFile(path string, src any) error {
	file, err := parser.ParseFile(l.fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return err
	}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || (gen.Tok != token.CONST && gen.Tok != token.VAR) {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, value := range vs.Values {
				bl, ok := value.(*ast.BasicLit)
				if !ok || bl.Kind != token.STRING {
					continue
				}
				name := ""
				if i < len(vs.Names) {
					name = vs.Names[i].Name
				}
				l.checkLiteral(name, bl)
			}
		}
	}
	return nil
}

func (l *linter) checkLiteral(name string, bl *ast.BasicLit) {
	raw, err := unquote(bl.Value)
	if err != nil || !sqlStatementPattern.MatchString(raw) {
		return
	}
	pos := l.fset.Position(bl.Pos())
	marker := firstLine(raw)
	if !uuidMarkerPattern.MatchString(marker) {
		l.violations = append(l.violations, violation{pos: pos, name: name, message: "missing or invalid --sql <uuid> marker"})
		return
	}
	if prev, dup := l.seen[marker]; dup {
		l.violations = append(l.violations, violation{
			pos:     pos,
			name:    name,
			message: fmt.Sprintf("marker already used at %s:%d", prev.Filename, prev.Line),
		})
		return
	}
	l.seen[marker] = pos
}

func (l *linter) report(w io.Writer) int {
	if len(l.violations) == 0 {
		return 0
	}
	sort.Slice(l.violations, func(i, j int) bool {
		a, b := l.violations[i].pos, l.violations[j].pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Line < b.Line
	})
	fmt.Fprintln(w, "sqllint: SQL audit marker violations")
	for _, v := range l.violations {
		fmt.Fprintf(w, "  %s:%d %s (%s)\n", v.pos.Filename, v.pos.Line, v.message, v.name)
	}
	return len(l.violations)
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) >= 2 && v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
