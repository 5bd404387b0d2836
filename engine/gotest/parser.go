package gotest

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/testmux/testmux/engine"
	"github.com/testmux/testmux/types"
)

// Go test2json (TestEvent) action constants for JSON test output
// See https://cs.opensource.google/go/go/+/master:src/cmd/test2json/main.go
const (
	actionStart  = "start"
	actionRun    = "run"
	actionPass   = "pass"
	actionFail   = "fail"
	actionSkip   = "skip"
	actionOutput = "output"
)

// testEvent mirrors the JSON records produced by `go test -json`.
type testEvent struct {
	Time    time.Time
	Action  string
	Package string
	Test    string
	Elapsed float64
	Output  string
}

// pendingTest accumulates state for one in-flight test case.
type pendingTest struct {
	tc     engine.TestCase
	start  time.Time
	output *tailBuffer
}

// eventParser converts a test2json stream into engine events for the selected
// top-level test cases. Subtest events are folded into their parent: their
// output counts toward the parent's captured output and their pass/fail is
// already reflected in the parent's terminal event.
type eventParser struct {
	selected map[string]engine.TestCase
	sink     engine.EventSink
	pending  map[string]*pendingTest

	failures int
}

func newEventParser(cases []engine.TestCase, sink engine.EventSink) *eventParser {
	selected := make(map[string]engine.TestCase, len(cases))
	for _, tc := range cases {
		selected[tc.DisplayName()] = tc
	}
	return &eventParser{
		selected: selected,
		sink:     sink,
		pending:  make(map[string]*pendingTest),
	}
}

// consume reads the stream to EOF, emitting events as tests settle.
// Lines that are not valid JSON (build noise, vet output) are ignored.
func (p *eventParser) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev testEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		p.process(ev)
	}
	return scanner.Err()
}

func (p *eventParser) process(ev testEvent) {
	if ev.Test == "" {
		return
	}
	root := rootTestName(ev.Test)
	tc, ok := p.selected[root]
	if !ok {
		return
	}

	pend, started := p.pending[root]
	if !started {
		pend = &pendingTest{tc: tc, start: ev.Time, output: newTailBuffer(0)}
		p.pending[root] = pend
		p.sink.TestStarted(engine.TestStarted{Case: tc})
	}

	switch ev.Action {
	case actionOutput:
		pend.output.WriteString(stripansi.Strip(ev.Output))
	case actionPass:
		if ev.Test == root {
			p.finish(root, pend, ev, types.TestStatusPass)
		}
	case actionSkip:
		if ev.Test == root {
			p.finish(root, pend, ev, types.TestStatusSkip)
		}
	case actionFail:
		if ev.Test == root {
			p.failures++
			p.finish(root, pend, ev, types.TestStatusFail)
		}
	}
}

func (p *eventParser) finish(root string, pend *pendingTest, ev testEvent, status types.TestStatus) {
	finished := engine.TestFinished{
		Case:     pend.tc,
		Status:   status,
		Duration: testDuration(pend.start, ev),
	}
	if status == types.TestStatusFail {
		finished.Output = pend.output.String()
		finished.Failure = failureMessage(finished.Output, root)
	}
	delete(p.pending, root)
	p.sink.TestFinished(finished)
}

// flushIncomplete fails every test that started but never settled, which
// happens when the process dies mid-run.
func (p *eventParser) flushIncomplete(reason string) {
	for name, pend := range p.pending {
		delete(p.pending, name)
		p.sink.TestFinished(engine.TestFinished{
			Case:    pend.tc,
			Status:  types.TestStatusError,
			Output:  pend.output.String(),
			Failure: reason,
		})
	}
}

func rootTestName(name string) string {
	if idx := strings.Index(name, "/"); idx != -1 {
		return name[:idx]
	}
	return name
}

func testDuration(start time.Time, ev testEvent) time.Duration {
	if ev.Elapsed > 0 {
		return time.Duration(ev.Elapsed * float64(time.Second))
	}
	if start.IsZero() || ev.Time.Before(start) {
		return 0
	}
	return ev.Time.Sub(start)
}

// failureMessage extracts a concise failure line from captured output,
// preferring explicit failure markers over the raw tail.
func failureMessage(output, testName string) string {
	var fallback string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "--- FAIL:"), strings.HasPrefix(trimmed, "panic:"):
			return trimmed
		case strings.Contains(trimmed, "Error:") && fallback == "":
			fallback = trimmed
		}
	}
	if fallback != "" {
		return fallback
	}
	return "test " + testName + " failed"
}
