package model

// Category is the tentative outcome of the test currently being executed,
// as reported by the host framework's lifecycle callbacks.
type Category string

const (
	CategoryPending    Category = "pending"
	CategoryPassed     Category = "passed"
	CategoryFailed     Category = "failed"
	CategoryFailure    Category = "failure"
	CategoryError      Category = "error"
	CategoryWarning    Category = "warning"
	CategoryIncomplete Category = "incomplete"
	CategoryRisky      Category = "risky"
	CategorySkipped    Category = "skipped"
)

// TestCase is the metadata the host framework exposes for a single test.
type TestCase struct {
	// Full test name, including subtest path (e.g. "TestFoo/bar")
	Name string `json:"name"`
	// Import path of the package the test belongs to
	Package string `json:"package,omitempty"`
	// Declared source file of the test function (absolute or relative to the root)
	File string `json:"file,omitempty"`
	// Declared source line of the test function
	Line int `json:"line,omitempty"`
}

// Frame is a single entry of a captured call stack.
type Frame struct {
	Function string `json:"function,omitempty"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
}

// CapturedError describes why a test did not pass.
type CapturedError struct {
	// Failure message
	Message string `json:"message"`
	// File the failure originated from
	File string `json:"file"`
	// Line the failure originated from
	Line int `json:"line"`
	// Call stack, in the order it was captured
	Stack []Frame `json:"stack,omitempty"`
}

// Outcome is the state carried between a test's start and end callbacks.
type Outcome struct {
	Category Category
	Err      *CapturedError
}
