package architecture_test

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// forbidden maps a layer under internal/ to the sibling layers it must not
// import. Dependencies point inward: http -> services -> data -> modules ->
// domain, with platform usable from anywhere except domain.
var forbidden = map[string][]string{
	"platform": {"modules", "services", "data", "http", "app"},
	"domain":   {"platform", "modules", "services", "data", "http", "app"},
	"modules":  {"services", "data", "http", "app"},
	"services": {"http", "app"},
	"data":     {"services", "http", "app"},
	"http":     {"data", "app"},
}

func TestImportBoundaries(t *testing.T) {
	root := moduleRoot(t)
	internal := modulePath(t, root) + "/internal/"

	var violations []string
	eachImport(t, root, func(rel, imp string) {
		layer, _, _ := strings.Cut(strings.TrimPrefix(rel, "internal/"), "/")
		for _, banned := range forbidden[layer] {
			if strings.HasPrefix(imp, internal+banned+"/") {
				violations = append(violations, fmt.Sprintf("- %s (%s) imports %s", rel, layer, imp))
			}
		}
	})
	report(t, "import boundary violations", violations)
}

func TestGinConfinedToTransport(t *testing.T) {
	root := moduleRoot(t)
	var violations []string
	eachImport(t, root, func(rel, imp string) {
		if strings.HasPrefix(rel, "internal/http/") || strings.HasPrefix(rel, "internal/app/") {
			return
		}
		if strings.HasPrefix(imp, "github.com/gin-gonic/") || strings.HasPrefix(imp, "github.com/gin-contrib/") {
			violations = append(violations, fmt.Sprintf("- %s imports %s", rel, imp))
		}
	})
	report(t, "gin used outside internal/http and internal/app", violations)
}

// eachImport calls fn for every import of every .go file under internal/.
// rel is slash-separated and relative to root.
func eachImport(t *testing.T, root string, fn func(rel, imp string)) {
	t.Helper()
	fset := token.NewFileSet()
	err := filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			if imp, err := strconv.Unquote(spec.Path.Value); err == nil {
				fn(filepath.ToSlash(rel), imp)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
}

func report(t *testing.T, title string, violations []string) {
	t.Helper()
	if len(violations) == 0 {
		return
	}
	sort.Strings(violations)
	t.Fatalf("%s:\n%s", title, strings.Join(violations, "\n"))
}

func moduleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("no go.mod above the test directory")
		}
		dir = parent
	}
}

func modulePath(t *testing.T, root string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read go.mod: %v", err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if mp, ok := strings.CutPrefix(strings.TrimSpace(line), "module "); ok {
			return strings.Trim(strings.TrimSpace(mp), `"`)
		}
	}
	t.Fatalf("go.mod has no module directive")
	return ""
}
