package gotest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const calcTest = `package calc

import "testing"

func TestAdd(t *testing.T) {
	t.Run("zero", func(t *testing.T) {})
}

type CalcSuite struct{}

func (s *CalcSuite) TestSubtract() {}

func (s *CalcSuite) helper() {}

func TestCalcSuite(t *testing.T) {}
`

func writeModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n\ngo 1.24\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "calc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "calc", "calc_test.go"), []byte(calcTest), 0644))
	return root
}

func TestLocator_Locate(t *testing.T) {
	root := writeModule(t)
	l := NewLocator(zerolog.Nop(), filepath.Join(root, "calc"))
	l.listDir = func(pkg string) (string, error) {
		return "", errors.New("not listed")
	}
	calcFile := filepath.Join(root, "calc", "calc_test.go")

	tests := []struct {
		name     string
		test     string
		wantFile string
		wantLine int
	}{
		{"top level", "TestAdd", calcFile, 5},
		{"subtest", "TestAdd/zero", calcFile, 5},
		{"suite method", "TestCalcSuite/TestSubtract", calcFile, 11},
		{"suite without method", "TestCalcSuite/helper", calcFile, 15},
		{"unknown", "TestMissing", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := l.Locate("example.com/demo/calc", tt.test)
			require.Equal(t, tt.test, tc.Name)
			require.Equal(t, "example.com/demo/calc", tc.Package)
			require.Equal(t, tt.wantFile, tc.File)
			require.Equal(t, tt.wantLine, tc.Line)
		})
	}

	require.Equal(t, filepath.Join(root, "calc"), l.Dir("example.com/demo/calc"))
}

func TestLocator_OutsideModule(t *testing.T) {
	root := writeModule(t)
	l := NewLocator(zerolog.Nop(), root)

	var listed []string
	l.listDir = func(pkg string) (string, error) {
		listed = append(listed, pkg)
		return filepath.Join(root, "calc"), nil
	}

	tc := l.Locate("other.example.com/calc", "TestAdd")
	require.Equal(t, 5, tc.Line)

	// cached after the first lookup
	l.Locate("other.example.com/calc", "TestAdd")
	require.Equal(t, []string{"other.example.com/calc"}, listed)
}

func TestLocator_UnresolvablePackage(t *testing.T) {
	l := NewLocator(zerolog.Nop(), t.TempDir())
	l.listDir = func(pkg string) (string, error) {
		return "", errors.New("not found")
	}

	tc := l.Locate("example.com/nowhere", "TestX")
	require.Empty(t, tc.File)
	require.Empty(t, l.Dir("example.com/nowhere"))
}
