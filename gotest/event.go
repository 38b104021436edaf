package gotest

// This file contains the test2json event model and a decoder for the
// stream produced by `go test -json`.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"
)

// Actions emitted by test2json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"

	// Emitted since Go 1.24 for compiler output, keyed by ImportPath.
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// Event is a single line of `go test -json` output.
type Event struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Elapsed time in seconds for the specific action

	ImportPath string // Package being built, set on build-output and build-fail
}

// terminal reports whether the action ends a test or a package.
func terminal(action string) bool {
	return action == ActionPass || action == ActionFail || action == ActionSkip
}

const maxLineSize = 4 * 1024 * 1024

// Decoder reads events from a test2json stream. Lines that are not JSON
// events, such as build errors, are copied to the passthrough writer.
type Decoder struct {
	scanner     *bufio.Scanner
	passthrough io.Writer
}

// NewDecoder returns a Decoder reading from r. passthrough may be nil.
func NewDecoder(r io.Reader, passthrough io.Writer) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner, passthrough: passthrough}
}

// Next returns the next event, or io.EOF once the stream is exhausted.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		line := d.scanner.Bytes()
		if event, ok := parseEvent(line); ok {
			return event, nil
		}
		if d.passthrough != nil && len(bytes.TrimSpace(line)) > 0 {
			_, _ = d.passthrough.Write(line)
			_, _ = io.WriteString(d.passthrough, "\n")
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

func parseEvent(line []byte) (Event, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, false
	}
	var event Event
	if err := json.Unmarshal(trimmed, &event); err != nil || event.Action == "" {
		return Event{}, false
	}
	return event, true
}
