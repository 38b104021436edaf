package gotest

// This file contains the lookup of a test function's declared source
// position from its package import path and test name.

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gocmd "github.com/flaptastic/flaptastic-go/cli/go"
	"github.com/flaptastic/flaptastic-go/model"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
)

type position struct {
	file string
	line int
}

type packageIndex struct {
	dir   string
	funcs map[string]position
	// Test* methods by name, only kept when the name is unambiguous
	methods map[string]position
}

// Locator maps package import paths to directories and test names to the
// position of their declaration.
type Locator struct {
	logger     zerolog.Logger
	modulePath string
	moduleDir  string
	listDir    func(pkg string) (string, error)

	mu    sync.Mutex
	cache map[string]*packageIndex
}

// NewLocator returns a Locator for the module enclosing workDir. Packages
// outside that module are resolved with `go list`.
func NewLocator(logger zerolog.Logger, workDir string) *Locator {
	l := &Locator{
		logger:  logger,
		listDir: gocmd.ListDir,
		cache:   make(map[string]*packageIndex),
	}
	if dir, path, err := findModule(workDir); err == nil {
		l.moduleDir, l.modulePath = dir, path
		logger.Debug().Str("module", path).Str("dir", dir).Msg("Resolved enclosing module")
	} else {
		logger.Debug().Err(err).Str("dir", workDir).Msg("No enclosing module found")
	}
	return l
}

// findModule walks up from dir to the nearest go.mod and returns its
// directory and module path.
func findModule(dir string) (string, string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			return dir, modfile.ModulePath(data), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", os.ErrNotExist
		}
		dir = parent
	}
}

// Dir returns the source directory of pkg, or "" when it cannot be found.
func (l *Locator) Dir(pkg string) string {
	return l.index(pkg).dir
}

// Locate returns the test case for test in pkg. Subtests are located at
// their parent function, or at the suite method of the same name.
func (l *Locator) Locate(pkg, test string) model.TestCase {
	tc := model.TestCase{Name: test, Package: pkg}
	idx := l.index(pkg)

	parts := strings.Split(test, "/")
	pos, ok := idx.funcs[parts[0]]
	if len(parts) > 1 {
		if method, found := idx.methods[parts[1]]; found {
			pos, ok = method, true
		}
	}
	if !ok {
		l.logger.Debug().Str("package", pkg).Str("test", test).Msg("Test declaration not found")
		return tc
	}

	tc.File = pos.file
	tc.Line = pos.line
	return tc
}

func (l *Locator) index(pkg string) *packageIndex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, ok := l.cache[pkg]; ok {
		return idx
	}

	idx := &packageIndex{funcs: map[string]position{}, methods: map[string]position{}}
	idx.dir = l.resolveDir(pkg)
	if idx.dir != "" {
		l.scan(idx)
	}
	l.cache[pkg] = idx
	return idx
}

func (l *Locator) resolveDir(pkg string) string {
	if l.modulePath != "" {
		if pkg == l.modulePath {
			return l.moduleDir
		}
		if rest, ok := strings.CutPrefix(pkg, l.modulePath+"/"); ok {
			return filepath.Join(l.moduleDir, filepath.FromSlash(rest))
		}
	}
	if l.listDir == nil {
		return ""
	}
	dir, err := l.listDir(pkg)
	if err != nil {
		l.logger.Debug().Err(err).Str("package", pkg).Msg("Failed to resolve package directory")
		return ""
	}
	return dir
}

func (l *Locator) scan(idx *packageIndex) {
	files, err := filepath.Glob(filepath.Join(idx.dir, "*_test.go"))
	if err != nil {
		return
	}

	ambiguous := map[string]bool{}
	fset := token.NewFileSet()
	for _, file := range files {
		parsed, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
		if err != nil {
			l.logger.Debug().Err(err).Str("file", file).Msg("Failed to parse test file")
			continue
		}
		for _, decl := range parsed.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			p := fset.Position(fn.Pos())
			pos := position{file: p.Filename, line: p.Line}
			if fn.Recv == nil {
				idx.funcs[fn.Name.Name] = pos
				continue
			}
			name := fn.Name.Name
			if !strings.HasPrefix(name, "Test") {
				continue
			}
			if _, seen := idx.methods[name]; seen || ambiguous[name] {
				delete(idx.methods, name)
				ambiguous[name] = true
				continue
			}
			idx.methods[name] = pos
		}
	}
}
