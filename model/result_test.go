package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultRecord_MarshalJSON(t *testing.T) {
	passed, err := json.Marshal(ResultRecord{Name: "TestA", File: "a_test.go", Line: 10, Status: StatusPassed})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"TestA","file":"a_test.go","line":10,"status":"passed"}`, string(passed))

	failed, err := json.Marshal(ResultRecord{Name: "TestB", File: "b_test.go", Line: 42, Status: StatusFailed, Exception: "boom"})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"name": "TestB",
		"file": "b_test.go",
		"line": 42,
		"status": "failed",
		"exception": "boom",
		"file_stack": [],
		"exception_site": []
	}`, string(failed))
}
