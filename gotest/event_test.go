package gotest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoder_Next(t *testing.T) {
	stream := strings.Join([]string{
		`{"Time":"2024-01-01T00:00:00Z","Action":"start","Package":"example.com/foo"}`,
		`# example.com/bar`,
		`bar/bar.go:3:1: syntax error`,
		``,
		`{"Time":"2024-01-01T00:00:01Z","Action":"run","Package":"example.com/foo","Test":"TestA"}`,
		`{"broken json`,
		`{"Time":"2024-01-01T00:00:02Z","Action":"pass","Package":"example.com/foo","Test":"TestA","Elapsed":0.5}`,
	}, "\n")

	var passthrough bytes.Buffer
	dec := NewDecoder(strings.NewReader(stream), &passthrough)

	var actions []string
	for {
		event, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		actions = append(actions, event.Action)
		require.Equal(t, "example.com/foo", event.Package)
	}

	require.Equal(t, []string{ActionStart, ActionRun, ActionPass}, actions)
	require.Equal(t, "# example.com/bar\nbar/bar.go:3:1: syntax error\n{\"broken json\n", passthrough.String())
}

func TestDecoder_NilPassthrough(t *testing.T) {
	dec := NewDecoder(strings.NewReader("not json\n"), nil)
	_, err := dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoder_BuildOutput(t *testing.T) {
	line := `{"ImportPath":"example.com/foo [example.com/foo.test]","Action":"build-output","Output":"foo_test.go:3:2: undefined: x\n"}`
	dec := NewDecoder(strings.NewReader(line), nil)

	event, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, ActionBuildOutput, event.Action)
	require.Equal(t, "example.com/foo [example.com/foo.test]", event.ImportPath)
	require.Empty(t, event.Package)
	require.Equal(t, "foo_test.go:3:2: undefined: x\n", event.Output)
}
