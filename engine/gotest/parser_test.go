package gotest

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmux/testmux/engine"
	"github.com/testmux/testmux/types"
)

// recordingSink captures engine events for assertions.
type recordingSink struct {
	mu       sync.Mutex
	started  []string
	finished []engine.TestFinished
}

func (s *recordingSink) TestStarted(ev engine.TestStarted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, ev.Case.DisplayName())
}

func (s *recordingSink) TestFinished(ev engine.TestFinished) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, ev)
}

func (s *recordingSink) byName(name string) (engine.TestFinished, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.finished {
		if ev.Case.DisplayName() == name {
			return ev, true
		}
	}
	return engine.TestFinished{}, false
}

func cases(names ...string) []engine.TestCase {
	out := make([]engine.TestCase, len(names))
	for i, n := range names {
		out[i] = &testCase{Name: n}
	}
	return out
}

func TestParser_PassFailSkip(t *testing.T) {
	stream := strings.Join([]string{
		`{"Action":"run","Test":"TestPass","Time":"2026-08-30T10:00:00Z"}`,
		`{"Action":"pass","Test":"TestPass","Elapsed":0.25}`,
		`{"Action":"run","Test":"TestFail"}`,
		`{"Action":"output","Test":"TestFail","Output":"--- FAIL: TestFail (0.10s)\n"}`,
		`{"Action":"output","Test":"TestFail","Output":"    main_test.go:12: expected 2, got 3\n"}`,
		`{"Action":"fail","Test":"TestFail","Elapsed":0.1}`,
		`{"Action":"run","Test":"TestSkip"}`,
		`{"Action":"skip","Test":"TestSkip","Elapsed":0}`,
	}, "\n")

	sink := &recordingSink{}
	p := newEventParser(cases("TestPass", "TestFail", "TestSkip"), sink)
	require.NoError(t, p.consume(strings.NewReader(stream)))

	require.Len(t, sink.finished, 3)
	assert.Equal(t, 1, p.failures)

	pass, ok := sink.byName("TestPass")
	require.True(t, ok)
	assert.Equal(t, types.TestStatusPass, pass.Status)
	assert.Equal(t, 250*time.Millisecond, pass.Duration)
	assert.Empty(t, pass.Output, "output is only kept for failures")

	fail, ok := sink.byName("TestFail")
	require.True(t, ok)
	assert.Equal(t, types.TestStatusFail, fail.Status)
	assert.Equal(t, "--- FAIL: TestFail (0.10s)", fail.Failure)
	assert.Contains(t, fail.Output, "expected 2, got 3")

	skip, ok := sink.byName("TestSkip")
	require.True(t, ok)
	assert.Equal(t, types.TestStatusSkip, skip.Status)
}

func TestParser_SubtestsFoldIntoParent(t *testing.T) {
	stream := strings.Join([]string{
		`{"Action":"run","Test":"TestParent"}`,
		`{"Action":"run","Test":"TestParent/child"}`,
		`{"Action":"output","Test":"TestParent/child","Output":"    child_test.go:4: child broke\n"}`,
		`{"Action":"fail","Test":"TestParent/child","Elapsed":0.01}`,
		`{"Action":"fail","Test":"TestParent","Elapsed":0.02}`,
	}, "\n")

	sink := &recordingSink{}
	p := newEventParser(cases("TestParent"), sink)
	require.NoError(t, p.consume(strings.NewReader(stream)))

	require.Len(t, sink.started, 1, "subtests do not produce their own started events")
	require.Len(t, sink.finished, 1)
	ev := sink.finished[0]
	assert.Equal(t, types.TestStatusFail, ev.Status)
	assert.Contains(t, ev.Output, "child broke")
}

func TestParser_IgnoresUnselectedTestsAndNoise(t *testing.T) {
	stream := strings.Join([]string{
		`not json at all`,
		`{"Action":"run","Test":"TestOther"}`,
		`{"Action":"pass","Test":"TestOther","Elapsed":0.1}`,
		`{"Action":"start","Package":"example.com/pkg"}`,
		`{"Action":"run","Test":"TestMine"}`,
		`{"Action":"pass","Test":"TestMine","Elapsed":0.1}`,
	}, "\n")

	sink := &recordingSink{}
	p := newEventParser(cases("TestMine"), sink)
	require.NoError(t, p.consume(strings.NewReader(stream)))

	require.Len(t, sink.finished, 1)
	assert.Equal(t, "TestMine", sink.finished[0].Case.DisplayName())
}

func TestParser_StripsANSIFromOutput(t *testing.T) {
	stream := strings.Join([]string{
		`{"Action":"run","Test":"TestColor"}`,
		`{"Action":"output","Test":"TestColor","Output":"[31mError: red[0m\n"}`,
		`{"Action":"fail","Test":"TestColor","Elapsed":0.1}`,
	}, "\n")

	sink := &recordingSink{}
	p := newEventParser(cases("TestColor"), sink)
	require.NoError(t, p.consume(strings.NewReader(stream)))

	fail, ok := sink.byName("TestColor")
	require.True(t, ok)
	assert.NotContains(t, fail.Output, "[")
	assert.Equal(t, "Error: red", fail.Failure)
}

func TestParser_FlushIncompleteFailsPendingTests(t *testing.T) {
	stream := strings.Join([]string{
		`{"Action":"run","Test":"TestHung"}`,
		`{"Action":"output","Test":"TestHung","Output":"partial output\n"}`,
	}, "\n")

	sink := &recordingSink{}
	p := newEventParser(cases("TestHung"), sink)
	require.NoError(t, p.consume(strings.NewReader(stream)))
	p.flushIncomplete("test process died")

	require.Len(t, sink.finished, 1)
	ev := sink.finished[0]
	assert.Equal(t, types.TestStatusError, ev.Status)
	assert.Equal(t, "test process died", ev.Failure)
	assert.Contains(t, ev.Output, "partial output")
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "--- FAIL: TestX (0.10s)",
		failureMessage("some noise\n--- FAIL: TestX (0.10s)\nmore", "TestX"))
	assert.Equal(t, "panic: boom",
		failureMessage("panic: boom\ngoroutine 7", "TestX"))
	assert.Equal(t, "x_test.go:9: Error: wanted 1",
		failureMessage("x_test.go:9: Error: wanted 1", "TestX"))
	assert.Equal(t, "test TestX failed", failureMessage("", "TestX"))
}
