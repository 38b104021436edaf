package model

import "encoding/json"

// Status is the reported status of a ResultRecord.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
)

// ContextLine is one line of source surrounding a failure site.
type ContextLine struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
}

// ResultRecord is the normalized, reportable outcome of one test.
type ResultRecord struct {
	Name string `json:"name"`
	// Path relative to the project root
	File   string `json:"file"`
	Line   int    `json:"line"`
	Status Status `json:"status"`

	// Only populated when Status is not passed
	Exception     string        `json:"exception"`
	FileStack     []string      `json:"file_stack"`
	ExceptionSite []ContextLine `json:"exception_site"`
}

type passedRecord struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Status Status `json:"status"`
}

// MarshalJSON omits the failure fields from passed records and always
// emits them, as lists, for the others.
func (r ResultRecord) MarshalJSON() ([]byte, error) {
	if r.Status == StatusPassed {
		return json.Marshal(passedRecord{Name: r.Name, File: r.File, Line: r.Line, Status: r.Status})
	}

	type full ResultRecord
	out := full(r)
	if out.FileStack == nil {
		out.FileStack = []string{}
	}
	if out.ExceptionSite == nil {
		out.ExceptionSite = []ContextLine{}
	}
	return json.Marshal(out)
}

// Payload is the body of a single delivery request.
type Payload struct {
	Branch         string         `json:"branch"`
	CommitID       string         `json:"commit_id"`
	Link           string         `json:"link"`
	OrganizationID string         `json:"organization_id"`
	Service        string         `json:"service"`
	Timestamp      int64          `json:"timestamp"`
	TestResults    []ResultRecord `json:"test_results"`
}
