package runner

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testmux/testmux/types"
)

// Aggregator accumulates per-assembly execution summaries. Record may be
// called concurrently from distinct assembly execution units; each display
// name is written at most once per run and the first write wins.
type Aggregator struct {
	mu        sync.Mutex
	summaries map[string]types.ExecutionSummary
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{summaries: make(map[string]types.ExecutionSummary)}
}

// Record stores one assembly's summary. A duplicate display name indicates a
// target collision and is returned as an error; the stored summary is kept.
func (a *Aggregator) Record(summary types.ExecutionSummary) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.summaries[summary.Name]; exists {
		return fmt.Errorf("duplicate assembly display name %q", summary.Name)
	}
	a.summaries[summary.Name] = summary
	return nil
}

// Count returns the number of recorded summaries.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.summaries)
}

// Summaries returns the recorded summaries sorted lexicographically by name.
func (a *Aggregator) Summaries() []types.ExecutionSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.ExecutionSummary, 0, len(a.summaries))
	for _, s := range a.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GrandTotal returns the element-wise sum of all recorded summaries.
func (a *Aggregator) GrandTotal() types.ExecutionSummary {
	total := types.ExecutionSummary{Name: "GRAND TOTAL"}
	for _, s := range a.Summaries() {
		total = total.Add(s)
	}
	total.Name = "GRAND TOTAL"
	return total
}

// Report writes the summary table to w. Rows are ordered lexicographically so
// the output is deterministic regardless of completion order; a GRAND TOTAL
// row is appended only when more than one assembly was recorded. Nothing is
// written for a zero-assembly run.
func (a *Aggregator) Report(w io.Writer) {
	summaries := a.Summaries()
	if len(summaries) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Test Execution Summary")
	t.AppendHeader(table.Row{"Assembly", "Total", "Errors", "Failed", "Skipped", "Time"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Total", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Time", Align: text.AlignRight},
	})

	for _, s := range summaries {
		t.AppendRow(summaryRow(s))
	}
	if len(summaries) > 1 {
		t.AppendFooter(summaryRow(a.GrandTotal()))
	}
	t.Render()
}

func summaryRow(s types.ExecutionSummary) table.Row {
	return table.Row{
		s.Name,
		s.Total,
		s.Errored,
		s.Failed,
		s.Skipped,
		fmt.Sprintf("%.3fs", s.Time.Seconds()),
	}
}
