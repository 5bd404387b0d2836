package runner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmux/testmux/types"
)

func TestAggregator_RecordAndTotals(t *testing.T) {
	a := NewAggregator()
	require.NoError(t, a.Record(types.ExecutionSummary{Name: "beta", Total: 2, Failed: 1, Time: time.Second}))
	require.NoError(t, a.Record(types.ExecutionSummary{Name: "alpha", Total: 3, Skipped: 1, Time: 2 * time.Second}))

	summaries := a.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].Name, "rows are sorted lexicographically")
	assert.Equal(t, "beta", summaries[1].Name)

	total := a.GrandTotal()
	assert.Equal(t, 5, total.Total)
	assert.Equal(t, 1, total.Failed)
	assert.Equal(t, 1, total.Skipped)
	assert.Equal(t, 3*time.Second, total.Time)
}

func TestAggregator_DuplicateNameRejected(t *testing.T) {
	a := NewAggregator()
	require.NoError(t, a.Record(types.ExecutionSummary{Name: "app.tests", Total: 1}))

	err := a.Record(types.ExecutionSummary{Name: "app.tests", Total: 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	// First write wins.
	assert.Equal(t, 1, a.Summaries()[0].Total)
}

func TestAggregator_ConcurrentRecord(t *testing.T) {
	a := NewAggregator()
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			require.NoError(t, a.Record(types.ExecutionSummary{Name: name, Total: 1}))
		}(name)
	}
	wg.Wait()

	assert.Equal(t, len(names), a.Count())
	assert.Equal(t, len(names), a.GrandTotal().Total)
}

func TestAggregator_GrandTotalOrderIndependent(t *testing.T) {
	s1 := types.ExecutionSummary{Name: "x", Total: 3, Failed: 1, Time: time.Second}
	s2 := types.ExecutionSummary{Name: "y", Total: 2, Skipped: 2, Time: time.Minute}
	s3 := types.ExecutionSummary{Name: "z", Total: 7, Errored: 1}

	forward := NewAggregator()
	for _, s := range []types.ExecutionSummary{s1, s2, s3} {
		require.NoError(t, forward.Record(s))
	}
	backward := NewAggregator()
	for _, s := range []types.ExecutionSummary{s3, s2, s1} {
		require.NoError(t, backward.Record(s))
	}

	assert.Equal(t, forward.GrandTotal(), backward.GrandTotal())
}

func TestAggregator_ReportEmptyRunWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	NewAggregator().Report(&buf)
	assert.Zero(t, buf.Len())
}

func TestAggregator_ReportSingleAssemblyOmitsGrandTotal(t *testing.T) {
	a := NewAggregator()
	require.NoError(t, a.Record(types.ExecutionSummary{Name: "solo.tests", Total: 4, Time: time.Second}))

	var buf bytes.Buffer
	a.Report(&buf)

	out := buf.String()
	assert.Contains(t, out, "solo.tests")
	assert.NotContains(t, out, "GRAND TOTAL")
}

func TestAggregator_ReportMultipleAssemblies(t *testing.T) {
	a := NewAggregator()
	require.NoError(t, a.Record(types.ExecutionSummary{Name: "web.tests", Total: 3, Failed: 1, Time: 1500 * time.Millisecond}))
	require.NoError(t, a.Record(types.ExecutionSummary{Name: "core.tests", Total: 2, Time: 500 * time.Millisecond}))

	var buf bytes.Buffer
	a.Report(&buf)

	out := buf.String()
	assert.Contains(t, out, "GRAND TOTAL")
	assert.Contains(t, out, "core.tests")
	assert.Contains(t, out, "web.tests")
	assert.Contains(t, out, "2.000s")

	// Per-assembly rows come out sorted regardless of record order.
	assert.Less(t, strings.Index(out, "core.tests"), strings.Index(out, "web.tests"))
}
