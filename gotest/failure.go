package gotest

// This file contains the extraction of a failure message, origination site
// and call stack from the output a failed test printed.

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/flaptastic/flaptastic-go/model"
)

var (
	// "    foo_test.go:42: message" as printed by t.Error and friends
	siteLineRegex = regexp.MustCompile(`^\s+(\S+\.go):(\d+):(?: (.*))?$`)
	// "\t/abs/path/foo.go:42 +0x1d" in a goroutine dump
	frameLineRegex = regexp.MustCompile(`^\s+(\S+\.go):(\d+)(?: \+0x[0-9a-f]+)?$`)
	// "panic: message [recovered]"
	panicLineRegex = regexp.MustCompile(`^panic: (.*?)(?: \[recovered\])?$`)
	// "\tError Trace:\t/abs/path/foo_test.go:42" as printed by testify
	testifyFieldRegex = regexp.MustCompile(`^\s*(Error Trace|Error|Test|Messages):\s*(.*)$`)
	// "path/to/file.go:42" inside a testify trace
	traceEntryRegex = regexp.MustCompile(`^(\S+\.go):(\d+)$`)
)

// Failure is what could be recovered from the output of a failed test.
type Failure struct {
	Err model.CapturedError
	// Panic is set when the test stopped on a panic rather than a failed
	// assertion.
	Panic bool
}

// Located reports whether an origination site was found.
func (f Failure) Located() bool {
	return f.Err.File != ""
}

// ParseFailure inspects the output lines of a failed test. Bare file names,
// as printed by the testing package, are resolved against dir.
func ParseFailure(output []string, dir string) Failure {
	lines := cleanLines(output)

	if f, ok := parsePanic(lines, dir); ok {
		return f
	}
	if f, ok := parseTestify(lines, dir); ok {
		return f
	}
	if f, ok := parseSite(lines, dir); ok {
		return f
	}
	return Failure{Err: model.CapturedError{Message: fallbackMessage(lines)}}
}

func cleanLines(output []string) []string {
	var lines []string
	for _, chunk := range output {
		chunk = stripansi.Strip(chunk)
		for _, line := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
			line = strings.TrimRight(line, " \r")
			if isFrameworkLine(line) {
				continue
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func isFrameworkLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- FAIL", "--- PASS", "--- SKIP"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return trimmed == ""
}

func parsePanic(lines []string, dir string) (Failure, bool) {
	message := ""
	start := -1
	for i, line := range lines {
		if m := panicLineRegex.FindStringSubmatch(line); m != nil {
			message = m[1]
			start = i
			break
		}
	}
	if start < 0 {
		return Failure{}, false
	}

	var frames []model.Frame
	for i := start + 1; i < len(lines); i++ {
		m := frameLineRegex.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		frame := model.Frame{File: resolve(dir, m[1]), Line: line}
		if i > 0 {
			frame.Function = functionName(lines[i-1])
		}
		frames = append(frames, frame)
	}

	f := Failure{Panic: true, Err: model.CapturedError{Message: message, Stack: frames}}
	if site, ok := panicSite(frames); ok {
		f.Err.File = site.File
		f.Err.Line = site.Line
	}
	return f, true
}

// panicSite picks the frame a panic is blamed on: the innermost test file
// frame, then the innermost frame outside the runtime and testing packages.
func panicSite(frames []model.Frame) (model.Frame, bool) {
	for _, frame := range frames {
		if strings.HasSuffix(frame.File, "_test.go") {
			return frame, true
		}
	}
	for _, frame := range frames {
		if !strings.HasPrefix(frame.Function, "runtime.") &&
			!strings.HasPrefix(frame.Function, "testing.") &&
			frame.Function != "panic" {
			return frame, true
		}
	}
	if len(frames) > 0 {
		return frames[0], true
	}
	return model.Frame{}, false
}

// functionName extracts "pkg.Func" from "pkg.Func(0xc000012345, ...)".
func functionName(line string) string {
	line = strings.TrimSpace(line)
	if idx := strings.LastIndex(line, "("); idx > 0 {
		return line[:idx]
	}
	return line
}

func parseTestify(lines []string, dir string) (Failure, bool) {
	fields := map[string][]string{}
	current := ""
	found := false

	for _, line := range lines {
		if m := testifyFieldRegex.FindStringSubmatch(line); m != nil {
			current = m[1]
			found = found || current == "Error Trace"
			fields[current] = append(fields[current], strings.TrimSpace(m[2]))
			continue
		}
		if current == "" {
			continue
		}
		if siteLineRegex.MatchString(line) || !startsWithSpace(line) {
			current = ""
			continue
		}
		fields[current] = append(fields[current], strings.TrimSpace(line))
	}
	if !found {
		return Failure{}, false
	}

	var frames []model.Frame
	for _, entry := range fields["Error Trace"] {
		m := traceEntryRegex.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		frames = append(frames, model.Frame{File: resolve(dir, m[1]), Line: line})
	}
	if len(frames) == 0 {
		return Failure{}, false
	}

	message := strings.Join(nonEmpty(fields["Error"]), "\n")
	if messages := nonEmpty(fields["Messages"]); len(messages) > 0 {
		message += "\n" + strings.Join(messages, "\n")
	}

	return Failure{Err: model.CapturedError{
		Message: message,
		File:    frames[0].File,
		Line:    frames[0].Line,
		Stack:   frames,
	}}, true
}

func parseSite(lines []string, dir string) (Failure, bool) {
	for i, line := range lines {
		m := siteLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNumber, _ := strconv.Atoi(m[2])
		indent := indentation(line)

		message := []string{}
		if m[3] != "" {
			message = append(message, m[3])
		}
		for _, next := range lines[i+1:] {
			if indentation(next) <= indent || siteLineRegex.MatchString(next) {
				break
			}
			message = append(message, strings.TrimSpace(next))
		}

		file := resolve(dir, m[1])
		return Failure{Err: model.CapturedError{
			Message: strings.Join(message, "\n"),
			File:    file,
			Line:    lineNumber,
			Stack:   []model.Frame{{File: file, Line: lineNumber}},
		}}, true
	}
	return Failure{}, false
}

func fallbackMessage(lines []string) string {
	if len(lines) == 0 {
		return "test failed"
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func resolve(dir, file string) string {
	if dir == "" || filepath.IsAbs(file) || strings.ContainsAny(file, `/\`) {
		return file
	}
	return filepath.Join(dir, file)
}

func indentation(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func startsWithSpace(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
