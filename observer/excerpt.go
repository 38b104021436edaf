package observer

// This file contains the source-context extraction used to show the
// lines surrounding a failure site.

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/flaptastic/flaptastic-go/model"
)

const (
	// ContextBefore is the number of lines captured above the failure line.
	ContextBefore = 5
	// ContextAfter is the number of lines captured below the failure line.
	ContextAfter = 2
)

// trailing whitespace stripped from every captured line
const trimSet = " \t\n\r\x00\x0b"

// Excerpt returns the lines of path numbered target-ContextBefore through
// target+ContextAfter. Lines outside the file are omitted. An unreadable
// file yields an empty slice.
func Excerpt(path string, target int) []model.ContextLine {
	f, err := os.Open(path)
	if err != nil {
		return []model.ContextLine{}
	}
	defer f.Close()

	return excerpt(f, target)
}

func excerpt(r io.Reader, target int) []model.ContextLine {
	first, last := target-ContextBefore, target+ContextAfter
	result := []model.ContextLine{}

	reader := bufio.NewReader(r)
	for lineNumber := 1; lineNumber <= last; lineNumber++ {
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		if lineNumber >= first {
			result = append(result, model.ContextLine{
				LineNumber: lineNumber,
				Line:       strings.TrimRight(line, trimSet),
			})
		}
		if err != nil {
			break
		}
	}

	return result
}
