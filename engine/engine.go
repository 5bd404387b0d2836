// Package engine defines the narrow contract between the orchestrator and the
// external test-execution engine: discover the test cases in an assembly, run
// a filtered subset, and emit per-test outcome events. The core never inspects
// a test case beyond its display name and traits.
package engine

import (
	"context"
	"time"

	"github.com/testmux/testmux/types"
)

// TestCase is an opaque handle to one discovered test. The trait map is used
// only for filtering.
type TestCase interface {
	DisplayName() string
	Traits() map[string][]string
}

// TestStarted is emitted when the engine begins executing a test case.
type TestStarted struct {
	Case TestCase
}

// TestFinished is emitted when a test case settles.
type TestFinished struct {
	Case     TestCase
	Status   types.TestStatus
	Duration time.Duration
	Output   string // captured output, populated for failures
	Failure  string // failure message, empty unless Status is fail or error
}

// EventSink receives per-test outcome events during a run. Implementations
// must tolerate concurrent delivery when the engine parallelizes internally.
type EventSink interface {
	TestStarted(ev TestStarted)
	TestFinished(ev TestFinished)
}

// RunOptions carries per-run overrides passed through to the engine.
type RunOptions struct {
	// MaxParallelThreads caps the engine's internal parallelism.
	// nil leaves the engine default in place; 0 means no cap.
	MaxParallelThreads *int
	// ParallelizeCollections overrides the assembly's collection parallelism
	// default when non-nil.
	ParallelizeCollections *bool
	// DiagnosticMessages enables verbose engine logging.
	DiagnosticMessages bool
}

// Engine is the external test-execution collaborator. Both operations block
// until the engine settles; cancelling ctx is advisory only, the orchestrator
// never force-terminates in-flight work.
type Engine interface {
	Discover(ctx context.Context, target types.AssemblyTarget) ([]TestCase, error)
	Run(ctx context.Context, target types.AssemblyTarget, cases []TestCase, opts RunOptions, sink EventSink) error
}

// Serializer is implemented by engines whose test cases can round-trip through
// a byte encoding. The serialize diagnostic option uses it to validate that
// cases survive the trip; engines without it simply skip the check.
type Serializer interface {
	Serialize(tc TestCase) ([]byte, error)
	Deserialize(data []byte) (TestCase, error)
}
