// Package runner implements the orchestrator core: it drives N assembly
// execution units to completion, serially or in parallel, merges their result
// subtrees and summaries, and derives the run's exit code.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/testmux/testmux/engine"
	"github.com/testmux/testmux/exitcodes"
	"github.com/testmux/testmux/metrics"
	"github.com/testmux/testmux/reporter"
	"github.com/testmux/testmux/traits"
	"github.com/testmux/testmux/types"
)

// Options holds the per-run settings for an orchestrated execution.
type Options struct {
	// ParallelizeAssemblies selects serial vs parallel assembly execution.
	// nil infers: parallel only if every target's own config defaults to it.
	ParallelizeAssemblies *bool
	// MaxParallelThreads is passed through to the engine per assembly.
	MaxParallelThreads Parallelism
	// ParallelizeCollections overrides per-assembly collection parallelism
	// when non-nil.
	ParallelizeCollections *bool
	// DiagnosticMessages enables verbose engine logging for every assembly.
	DiagnosticMessages bool
	// SerializeTestCases round-trips test cases through the engine's
	// serializer before running them (diagnostic use).
	SerializeTestCases bool
	// BuildResultTree enables construction of the structured result tree.
	// Left false when no output format was requested, so the tree costs
	// nothing.
	BuildResultTree bool
	// WorkDir, when set, is the process working directory for the whole run.
	WorkDir string
}

// RunResult is the settled state of one orchestrated run.
type RunResult struct {
	// RunID uniquely identifies this run in logs and traces.
	RunID string
	// ExitCode is 0 on success, 1 when any test failed, -1 when any assembly
	// hit a fatal error.
	ExitCode int
	// Tree is nil unless Options.BuildResultTree was set.
	Tree *types.ResultRoot
	// Summaries holds the recorded per-assembly summaries.
	Summaries *Aggregator
}

// Orchestrator owns the assembly target list for a run and coordinates the
// execution units. Cancellation is cooperative: a single shared flag checked
// before each serial iteration and at each unit's entry; in-flight assemblies
// always run to completion.
type Orchestrator struct {
	engine   engine.Engine
	filters  traits.FilterSet
	reporter reporter.Reporter
	log      log.Logger
	tracer   trace.Tracer

	cancelled atomic.Bool
}

// New creates an orchestrator around the given engine, compiled trait filters,
// and progress reporter.
func New(eng engine.Engine, filters traits.FilterSet, rep reporter.Reporter, logger log.Logger) (*Orchestrator, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if rep == nil {
		rep = reporter.NewConsoleReporter(logger)
	}
	if logger == nil {
		logger = log.New()
	}
	return &Orchestrator{
		engine:   eng,
		filters:  filters,
		reporter: rep,
		log:      logger,
		tracer:   otel.Tracer("orchestrator"),
	}, nil
}

// Cancel sets the shared cancellation flag. Assemblies that have not yet
// entered are skipped; nothing already running is interrupted. Safe to call
// more than once.
func (o *Orchestrator) Cancel() {
	if o.cancelled.CompareAndSwap(false, true) {
		o.log.Warn("Cancellation requested, no new assemblies will start")
	}
}

// Cancelled reports whether the cancellation flag is set.
func (o *Orchestrator) Cancelled() bool {
	return o.cancelled.Load()
}

// Run executes all targets and returns the merged result. The returned error
// is reserved for failures of the run itself (working-directory setup);
// per-assembly fatal errors are isolated and folded into ExitCode.
func (o *Orchestrator) Run(ctx context.Context, targets []types.AssemblyTarget, opts Options) (*RunResult, error) {
	runID := uuid.New().String()
	ctx, span := o.tracer.Start(ctx, "run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	if err := checkDisplayNames(targets); err != nil {
		return nil, err
	}

	restore, err := enterWorkDir(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := restore(); err != nil {
			o.log.Error("Failed to restore working directory", "error", err)
		}
	}()

	start := time.Now()
	result := &RunResult{RunID: runID, Summaries: NewAggregator()}
	if opts.BuildResultTree {
		result.Tree = types.NewResultRoot(start)
	}

	parallel := o.resolveParallelism(targets, opts.ParallelizeAssemblies)
	o.log.Info("Starting run",
		"run_id", runID,
		"assemblies", len(targets),
		"parallel", parallel,
		"maxThreads", opts.MaxParallelThreads)

	var out outcome
	if parallel {
		var wg sync.WaitGroup
		for _, target := range targets {
			wg.Add(1)
			go func(target types.AssemblyTarget) {
				defer wg.Done()
				o.runOne(ctx, target, opts, result, &out)
			}(target)
		}
		wg.Wait()
	} else {
		for _, target := range targets {
			if o.cancelled.Load() {
				o.log.Info("Cancellation requested, skipping remaining assemblies")
				break
			}
			o.runOne(ctx, target, opts, result, &out)
		}
	}

	result.ExitCode = out.Code()
	metrics.RecordRun(result.ExitCode, time.Since(start))
	return result, nil
}

// runOne executes one target and merges its outcome. Fatal errors are logged
// with their full cause chain and escalate the exit code, but never abort
// other assemblies.
func (o *Orchestrator) runOne(ctx context.Context, target types.AssemblyTarget, opts Options, result *RunResult, out *outcome) {
	summary, subtree, err := o.execute(ctx, target, opts)
	if err != nil {
		o.logCauseChain(target.DisplayName(), err)
		o.reporter.AssemblyErrored(target.DisplayName(), err)
		metrics.RecordAssemblyError(target.DisplayName())
		out.Escalate(exitcodes.FatalError)
		return
	}
	if summary == nil {
		// Skipped at entry because cancellation was already requested.
		return
	}

	if err := result.Summaries.Record(*summary); err != nil {
		// Duplicate display names are rejected up front; hitting this at
		// runtime means the filesystem produced a collision mid-run.
		o.log.Error("Refusing duplicate assembly summary", "assembly", summary.Name, "error", err)
		out.Escalate(exitcodes.FatalError)
		return
	}
	if result.Tree != nil && subtree != nil {
		result.Tree.Append(subtree)
	}
	metrics.RecordAssembly(*summary)
	if summary.Failed > 0 || summary.Errored > 0 {
		out.Escalate(exitcodes.TestFailure)
	} else {
		out.Escalate(exitcodes.Success)
	}
}

// resolveParallelism applies the inference rule: when the caller did not
// choose, run parallel only if every target's own configuration defaults to
// parallel.
func (o *Orchestrator) resolveParallelism(targets []types.AssemblyTarget, explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	for _, t := range targets {
		if !t.Config.ParallelizeDefault() {
			return false
		}
	}
	return true
}

// logCauseChain logs a fatal assembly error one cause per line, outermost
// first.
func (o *Orchestrator) logCauseChain(assembly string, err error) {
	depth := 0
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		o.log.Error("Assembly fatal error",
			"assembly", assembly,
			"depth", depth,
			"type", fmt.Sprintf("%T", cause),
			"message", cause.Error())
		depth++
	}
}

func checkDisplayNames(targets []types.AssemblyTarget) error {
	seen := make(map[string]string, len(targets))
	for _, t := range targets {
		name := t.DisplayName()
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("assembly display name %q is ambiguous between %s and %s", name, prev, t.Path)
		}
		seen[name] = t.Path
	}
	return nil
}
