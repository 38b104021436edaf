package observer

// This file contains the conversion of a finished test into a ResultRecord.

import (
	"github.com/flaptastic/flaptastic-go/model"
)

// Builder turns test outcomes into normalized records. Paths are stored
// relative to Root.
type Builder struct {
	Root string
}

// BuildPassed returns the record of a passed test, located at the test's
// declared source position.
func (b Builder) BuildPassed(tc model.TestCase) model.ResultRecord {
	return model.ResultRecord{
		Name:   tc.Name,
		File:   RelativePath(b.Root, tc.File),
		Line:   tc.Line,
		Status: model.StatusPassed,
	}
}

// BuildNotPassed returns the record of a failed or errored test, located at
// the site the captured error originated from.
func (b Builder) BuildNotPassed(category model.Category, tc model.TestCase, captured model.CapturedError) model.ResultRecord {
	fileStack := make([]string, 0, len(captured.Stack))
	for _, frame := range captured.Stack {
		fileStack = append(fileStack, RelativePath(b.Root, frame.File))
	}

	return model.ResultRecord{
		Name:          tc.Name,
		File:          RelativePath(b.Root, captured.File),
		Line:          captured.Line,
		Status:        StatusFor(category),
		Exception:     captured.Message,
		FileStack:     fileStack,
		ExceptionSite: Excerpt(absolutePath(b.Root, captured.File), captured.Line),
	}
}

// StatusFor maps a not-passed category onto a record status. Both "error"
// and "failed" report as error while "failure" reports as failed; ingestion
// consumers rely on this exact mapping.
func StatusFor(category model.Category) model.Status {
	if category == model.CategoryFailure {
		return model.StatusFailed
	}
	return model.StatusError
}
