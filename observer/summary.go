package observer

// This file contains the per-run tallies kept by the Listener and their
// table rendering.

import (
	"bytes"

	"github.com/flaptastic/flaptastic-go/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary counts what the Listener has seen during the run.
type Summary struct {
	Suites int
	// Batches handed to the deliverer
	Batches int
	// Records buffered, by status
	Recorded map[model.Status]int
	// Tests ended without a record, by outcome
	Dropped map[model.Category]int
}

func newSummary() Summary {
	return Summary{
		Recorded: make(map[model.Status]int),
		Dropped:  make(map[model.Category]int),
	}
}

func (s Summary) clone() Summary {
	out := newSummary()
	out.Suites = s.Suites
	out.Batches = s.Batches
	for k, v := range s.Recorded {
		out.Recorded[k] = v
	}
	for k, v := range s.Dropped {
		out.Dropped[k] = v
	}
	return out
}

// Reported returns the number of records produced.
func (s Summary) Reported() int {
	total := 0
	for _, v := range s.Recorded {
		total += v
	}
	return total
}

// Format renders the summary as an ASCII table.
func (s Summary) Format() string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle("Flaptastic")
	t.AppendHeader(table.Row{"Outcome", "Tests", "Reported"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight},
	})

	for _, status := range []model.Status{model.StatusPassed, model.StatusFailed, model.StatusError} {
		t.AppendRow(table.Row{string(status), s.Recorded[status], "yes"})
	}
	for _, category := range []model.Category{
		model.CategorySkipped,
		model.CategoryIncomplete,
		model.CategoryWarning,
		model.CategoryRisky,
	} {
		if n := s.Dropped[category]; n > 0 {
			t.AppendRow(table.Row{string(category), n, "no"})
		}
	}

	t.AppendFooter(table.Row{"SUITES / BATCHES", s.Suites, s.Batches})
	t.SetStyle(table.StyleLight)
	t.Render()
	return buf.String()
}
