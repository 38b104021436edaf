package gotest

import (
	"path/filepath"
	"testing"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/stretchr/testify/require"
)

func TestParseFailure_TestingSite(t *testing.T) {
	dir := filepath.FromSlash("/src/project/pkg")
	output := []string{
		"=== RUN   TestAdd\n",
		"    add_test.go:42: boom\n",
		"        expected 3\n",
		"        got 4\n",
		"--- FAIL: TestAdd (0.00s)\n",
	}

	f := ParseFailure(output, dir)

	require.False(t, f.Panic)
	require.True(t, f.Located())
	require.Equal(t, "boom\nexpected 3\ngot 4", f.Err.Message)
	require.Equal(t, filepath.Join(dir, "add_test.go"), f.Err.File)
	require.Equal(t, 42, f.Err.Line)
	require.Equal(t, []model.Frame{{File: filepath.Join(dir, "add_test.go"), Line: 42}}, f.Err.Stack)
}

func TestParseFailure_FirstSiteWins(t *testing.T) {
	output := []string{
		"    a_test.go:10: first\n",
		"    a_test.go:12: second\n",
	}

	f := ParseFailure(output, "")

	require.Equal(t, "first", f.Err.Message)
	require.Equal(t, "a_test.go", f.Err.File)
	require.Equal(t, 10, f.Err.Line)
}

func TestParseFailure_StripsANSI(t *testing.T) {
	output := []string{"    \x1b[31mcolor_test.go:7: red\x1b[0m\n"}

	f := ParseFailure(output, "")

	require.Equal(t, "red", f.Err.Message)
	require.Equal(t, 7, f.Err.Line)
}

func TestParseFailure_Testify(t *testing.T) {
	output := []string{
		"=== RUN   TestEqual\n",
		"    equal_test.go:15: \n",
		"        \tError Trace:\t/src/project/pkg/equal_test.go:15\n",
		"        \t            \t\t\t\t/src/project/pkg/helpers_test.go:8\n",
		"        \tError:      \tNot equal: \n",
		"        \t            \texpected: 1\n",
		"        \t            \tactual  : 2\n",
		"        \tTest:       \tTestEqual\n",
		"        \tMessages:   \tcounts differ\n",
		"--- FAIL: TestEqual (0.00s)\n",
	}

	f := ParseFailure(output, "/ignored")

	require.False(t, f.Panic)
	require.Equal(t, "/src/project/pkg/equal_test.go", f.Err.File)
	require.Equal(t, 15, f.Err.Line)
	require.Equal(t, "Not equal:\nexpected: 1\nactual  : 2\ncounts differ", f.Err.Message)
	require.Equal(t, []model.Frame{
		{File: "/src/project/pkg/equal_test.go", Line: 15},
		{File: "/src/project/pkg/helpers_test.go", Line: 8},
	}, f.Err.Stack)
}

func TestParseFailure_Panic(t *testing.T) {
	output := []string{
		"=== RUN   TestPanics\n",
		"--- FAIL: TestPanics (0.00s)\n",
		"panic: something broke [recovered]\n",
		"\tpanic: something broke\n",
		"\n",
		"goroutine 7 [running]:\n",
		"testing.tRunner.func1.2({0x5b2f20, 0x62c6b0})\n",
		"\t/usr/local/go/src/testing/testing.go:1631 +0x24a\n",
		"panic({0x5b2f20?, 0x62c6b0?})\n",
		"\t/usr/local/go/src/runtime/panic.go:770 +0x132\n",
		"example.com/project/pkg.explode(...)\n",
		"\t/src/project/pkg/explode.go:9\n",
		"example.com/project/pkg.TestPanics(0xc000007860)\n",
		"\t/src/project/pkg/explode_test.go:21 +0x25\n",
		"testing.tRunner(0xc000007860, 0x5e0a28)\n",
		"\t/usr/local/go/src/testing/testing.go:1689 +0xfb\n",
	}

	f := ParseFailure(output, "")

	require.True(t, f.Panic)
	require.Equal(t, "something broke", f.Err.Message)
	require.Equal(t, "/src/project/pkg/explode_test.go", f.Err.File)
	require.Equal(t, 21, f.Err.Line)
	require.Len(t, f.Err.Stack, 5)
	require.Equal(t, "testing.tRunner.func1.2", f.Err.Stack[0].Function)
	require.Equal(t, "example.com/project/pkg.explode", f.Err.Stack[2].Function)
	require.Equal(t, "/src/project/pkg/explode.go", f.Err.Stack[2].File)
}

func TestParseFailure_PanicOutsideTestFiles(t *testing.T) {
	output := []string{
		"panic: runtime error: index out of range [3] with length 1\n",
		"goroutine 7 [running]:\n",
		"panic({0x5b2f20?, 0x62c6b0?})\n",
		"\t/usr/local/go/src/runtime/panic.go:770 +0x132\n",
		"example.com/project/pkg.lookup(...)\n",
		"\t/src/project/pkg/lookup.go:30\n",
	}

	f := ParseFailure(output, "")

	require.True(t, f.Panic)
	require.Equal(t, "/src/project/pkg/lookup.go", f.Err.File)
	require.Equal(t, 30, f.Err.Line)
}

func TestParseFailure_NoSite(t *testing.T) {
	f := ParseFailure([]string{
		"=== RUN   TestParent\n",
		"--- FAIL: TestParent (0.00s)\n",
	}, "")

	require.False(t, f.Located())
	require.Equal(t, "test failed", f.Err.Message)

	f = ParseFailure([]string{"unexpected exit\n"}, "")
	require.False(t, f.Located())
	require.Equal(t, "unexpected exit", f.Err.Message)
}
