package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/testmux/testmux/engine"
	"github.com/testmux/testmux/types"
)

// assemblyRun drives one assembly's discover, filter, run cycle. It is the
// engine's event sink for the run and owns its summary and result subtree
// until both are handed to the orchestrator on completion.
type assemblyRun struct {
	orch   *Orchestrator
	target types.AssemblyTarget
	name   string
	opts   Options

	mu      sync.Mutex
	total   int
	failed  int
	skipped int
	errored int
	subtree *types.AssemblyResult // nil unless an output format was requested
}

// execute runs the full cycle for one target. A nil summary with nil error
// means the run was cancelled before this assembly entered; a non-nil error is
// a fatal, assembly-isolated failure.
func (o *Orchestrator) execute(ctx context.Context, target types.AssemblyTarget, opts Options) (*types.ExecutionSummary, *types.AssemblyResult, error) {
	if o.cancelled.Load() {
		o.log.Info("Cancellation requested, skipping assembly", "assembly", target.DisplayName())
		return nil, nil, nil
	}

	ctx, span := o.tracer.Start(ctx, "assembly "+target.DisplayName())
	defer span.End()

	run := &assemblyRun{
		orch:   o,
		target: target,
		name:   target.DisplayName(),
		opts:   opts,
	}
	if opts.BuildResultTree {
		run.subtree = &types.AssemblyResult{
			Name:       run.name,
			ConfigFile: target.ConfigPath,
		}
	}
	return run.execute(ctx)
}

func (r *assemblyRun) execute(ctx context.Context) (*types.ExecutionSummary, *types.AssemblyResult, error) {
	r.orch.reporter.AssemblyStarted(r.name)
	start := time.Now()

	cases, err := r.orch.engine.Discover(ctx, r.target)
	if err != nil {
		return nil, nil, fmt.Errorf("discovering tests in %s: %w", r.target.Path, err)
	}

	selected := r.filterCases(cases)
	r.orch.reporter.AssemblyDiscovered(r.name, len(cases), len(selected))

	if r.opts.SerializeTestCases {
		if selected, err = r.roundTripCases(selected); err != nil {
			return nil, nil, fmt.Errorf("serializing test cases for %s: %w", r.name, err)
		}
	}

	// An assembly with no matching tests is not an error; record a zero
	// summary so it still shows up in the grand totals.
	if len(selected) > 0 {
		runOpts := engine.RunOptions{
			MaxParallelThreads:     r.opts.MaxParallelThreads.Threads(),
			ParallelizeCollections: r.opts.ParallelizeCollections,
			DiagnosticMessages:     r.opts.DiagnosticMessages || r.target.Config.Diagnostics,
		}
		if err := r.orch.engine.Run(ctx, r.target, selected, runOpts, r); err != nil {
			return nil, nil, fmt.Errorf("executing tests in %s: %w", r.target.Path, err)
		}
	}

	elapsed := time.Since(start)
	summary := r.summary(elapsed)
	if r.subtree != nil {
		r.finalizeSubtree(start, elapsed)
	}
	r.orch.reporter.AssemblyFinished(summary)
	return &summary, r.subtree, nil
}

func (r *assemblyRun) filterCases(cases []engine.TestCase) []engine.TestCase {
	selected := make([]engine.TestCase, 0, len(cases))
	for _, tc := range cases {
		if r.orch.filters.Match(tc.Traits()) {
			selected = append(selected, tc)
		}
	}
	return selected
}

// roundTripCases pushes every selected case through the engine's serializer
// and back, a diagnostic that validates cases survive the trip. Engines
// without a serializer skip the check.
func (r *assemblyRun) roundTripCases(cases []engine.TestCase) ([]engine.TestCase, error) {
	ser, ok := r.orch.engine.(engine.Serializer)
	if !ok {
		r.orch.log.Warn("Engine does not support test case serialization, skipping round-trip", "assembly", r.name)
		return cases, nil
	}
	out := make([]engine.TestCase, len(cases))
	for i, tc := range cases {
		data, err := ser.Serialize(tc)
		if err != nil {
			return nil, err
		}
		if out[i], err = ser.Deserialize(data); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TestStarted implements engine.EventSink.
func (r *assemblyRun) TestStarted(ev engine.TestStarted) {
	r.orch.log.Debug("Test started", "assembly", r.name, "test", ev.Case.DisplayName())
}

// TestFinished implements engine.EventSink. It may be called concurrently
// when the engine parallelizes internally.
func (r *assemblyRun) TestFinished(ev engine.TestFinished) {
	r.mu.Lock()
	r.total++
	switch ev.Status {
	case types.TestStatusFail:
		r.failed++
	case types.TestStatusSkip:
		r.skipped++
	case types.TestStatusError:
		r.errored++
	}
	if r.subtree != nil {
		r.subtree.Tests = append(r.subtree.Tests, caseResult(ev))
	}
	r.mu.Unlock()

	if ev.Status == types.TestStatusFail || ev.Status == types.TestStatusError {
		r.orch.reporter.TestFailed(r.name, ev.Case.DisplayName(), ev.Failure)
	}
}

func (r *assemblyRun) summary(elapsed time.Duration) types.ExecutionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return types.ExecutionSummary{
		Name:    r.name,
		Total:   r.total,
		Failed:  r.failed,
		Skipped: r.skipped,
		Errored: r.errored,
		Time:    elapsed,
	}
}

func (r *assemblyRun) finalizeSubtree(start time.Time, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subtree.Total = r.total
	r.subtree.Passed = r.total - r.failed - r.skipped - r.errored
	r.subtree.Failed = r.failed
	r.subtree.Skipped = r.skipped
	r.subtree.Errors = r.errored
	r.subtree.Stamp(start, elapsed)
}

func caseResult(ev engine.TestFinished) *types.CaseResult {
	res := &types.CaseResult{
		Name:   ev.Case.DisplayName(),
		Result: types.ResultString(ev.Status),
		Time:   types.FormatSeconds(ev.Duration),
	}
	for name, values := range ev.Case.Traits() {
		for _, v := range values {
			res.Traits = append(res.Traits, types.Trait{Name: name, Value: v})
		}
	}
	if ev.Failure != "" {
		res.Failure = &types.CaseFailure{Message: ev.Failure, Output: ev.Output}
	}
	return res
}
