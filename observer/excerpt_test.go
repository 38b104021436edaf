package observer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, n int, terminator string) string {
	t.Helper()
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line %d%s", i, terminator)
	}
	path := filepath.Join(t.TempDir(), "source.go")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

func lineRange(from, to int) []model.ContextLine {
	out := []model.ContextLine{}
	for i := from; i <= to; i++ {
		out = append(out, model.ContextLine{LineNumber: i, Line: fmt.Sprintf("line %d", i)})
	}
	return out
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name   string
		lines  int
		target int
		want   []model.ContextLine
	}{
		{
			name:   "window inside file",
			lines:  20,
			target: 10,
			want:   lineRange(5, 12),
		},
		{
			name:   "window clipped at start",
			lines:  20,
			target: 3,
			want:   lineRange(1, 5),
		},
		{
			name:   "window clipped at end",
			lines:  8,
			target: 7,
			want:   lineRange(2, 8),
		},
		{
			name:   "target past end of file",
			lines:  8,
			target: 12,
			want:   lineRange(7, 8),
		},
		{
			name:   "target far past end of file",
			lines:  8,
			target: 100,
			want:   []model.ContextLine{},
		},
		{
			name:   "target on first line",
			lines:  3,
			target: 1,
			want:   lineRange(1, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLines(t, tt.lines, "\n")
			require.Equal(t, tt.want, Excerpt(path, tt.target))
		})
	}
}

func TestExcerpt_StripsTerminators(t *testing.T) {
	path := writeLines(t, 10, " \r\n")
	require.Equal(t, lineRange(3, 10), Excerpt(path, 8))
}

func TestExcerpt_NoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.go")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc"), 0644))

	require.Equal(t, []model.ContextLine{
		{LineNumber: 1, Line: "a"},
		{LineNumber: 2, Line: "b"},
		{LineNumber: 3, Line: "c"},
	}, Excerpt(path, 2))
}

func TestExcerpt_UnreadableFile(t *testing.T) {
	got := Excerpt(filepath.Join(t.TempDir(), "missing.go"), 10)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestExcerpt_StopsAfterWindow(t *testing.T) {
	r := &countingReader{r: strings.NewReader(strings.Repeat("x\n", 10000))}
	got := excerpt(r, 3)
	require.Len(t, got, 5)
	require.Less(t, r.n, 10000*2)
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	if len(p) > 64 {
		p = p[:64]
	}
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
