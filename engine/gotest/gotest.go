// Package gotest adapts `go test` to the engine contract. An assembly is a Go
// package directory; discovery shells out to `go test -list` and execution
// streams `go test -json` output, converting test2json records into engine
// events. Traits come from the assembly's config file.
package gotest

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testmux/testmux/engine"
	"github.com/testmux/testmux/types"
)

// Engine runs Go test assemblies. Safe for concurrent use: all per-run state
// lives in the spawned command and its parser.
type Engine struct {
	goBinary string
	log      log.Logger
}

var _ engine.Engine = (*Engine)(nil)
var _ engine.Serializer = (*Engine)(nil)

// New creates a gotest engine. goBinary defaults to "go" when empty.
func New(goBinary string, logger log.Logger) *Engine {
	if goBinary == "" {
		goBinary = "go"
	}
	if logger == nil {
		logger = log.New()
	}
	return &Engine{goBinary: goBinary, log: logger}
}

// testCase implements engine.TestCase for a discovered Go test function.
type testCase struct {
	Name      string              `json:"name"`
	TraitTags map[string][]string `json:"traits,omitempty"`
}

func (t *testCase) DisplayName() string         { return t.Name }
func (t *testCase) Traits() map[string][]string { return t.TraitTags }

// Discover enumerates the top-level test functions in the target's package.
func (e *Engine) Discover(ctx context.Context, target types.AssemblyTarget) ([]engine.TestCase, error) {
	cmd := exec.CommandContext(ctx, e.goBinary, "test", "-list", "^Test", ".")
	cmd.Dir = target.Path
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("listing tests in %s: %w\n%s", target.Path, err, strings.TrimSpace(string(out)))
	}

	var cases []engine.TestCase
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if !strings.HasPrefix(name, "Test") {
			continue
		}
		cases = append(cases, &testCase{Name: name, TraitTags: target.Config.Traits[name]})
	}
	e.log.Debug("Discovered tests", "assembly", target.DisplayName(), "count", len(cases))
	return cases, nil
}

// Run executes the selected cases and streams their outcomes into sink. A run
// in which tests fail is not an error; only process-level breakage (build
// failure, missing binary) is.
func (e *Engine) Run(ctx context.Context, target types.AssemblyTarget, cases []engine.TestCase, opts engine.RunOptions, sink engine.EventSink) error {
	if len(cases) == 0 {
		return nil
	}

	args := []string{"test", "-json", "-count=1", "-run", runPattern(cases), "."}
	if n := parallelFlag(opts); n != "" {
		args = append(args, "-parallel", n)
	}
	if opts.DiagnosticMessages {
		args = append(args, "-v")
	}

	cmd := exec.CommandContext(ctx, e.goBinary, args...)
	cmd.Dir = target.Path
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	e.log.Debug("Running tests", "assembly", target.DisplayName(), "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", e.goBinary, err)
	}

	parser := newEventParser(cases, sink)
	parseErr := parser.consume(stdout)
	waitErr := cmd.Wait()

	if parseErr != nil {
		parser.flushIncomplete("test output stream broke: " + parseErr.Error())
		return fmt.Errorf("reading test output: %w", parseErr)
	}
	if waitErr != nil {
		// Exit code 1 with observed failures is the normal failing-test path.
		if exitErr, ok := waitErr.(*exec.ExitError); ok && exitErr.ExitCode() == 1 && parser.failures > 0 {
			parser.flushIncomplete("test process exited before this test settled")
			return nil
		}
		parser.flushIncomplete("test process died: " + waitErr.Error())
		return fmt.Errorf("running tests in %s: %w", target.Path, waitErr)
	}
	parser.flushIncomplete("test process exited before this test settled")
	return nil
}

// Serialize round-trips a test case through JSON. Part of the serialize
// diagnostic option.
func (e *Engine) Serialize(tc engine.TestCase) ([]byte, error) {
	c, ok := tc.(*testCase)
	if !ok {
		return nil, fmt.Errorf("cannot serialize foreign test case %q", tc.DisplayName())
	}
	return json.Marshal(c)
}

// Deserialize reverses Serialize.
func (e *Engine) Deserialize(data []byte) (engine.TestCase, error) {
	var c testCase
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("deserializing test case: %w", err)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("deserialized test case has no name")
	}
	return &c, nil
}

func runPattern(cases []engine.TestCase) string {
	names := make([]string, len(cases))
	for i, tc := range cases {
		names[i] = regexp.QuoteMeta(tc.DisplayName())
	}
	return "^(" + strings.Join(names, "|") + ")$"
}

// parallelFlag maps the run options onto go test's -parallel flag. A max
// thread cap of 0 means unlimited, which is left to the tool's own default;
// disabling collection parallelism pins the run to one worker.
func parallelFlag(opts engine.RunOptions) string {
	if opts.ParallelizeCollections != nil && !*opts.ParallelizeCollections {
		return "1"
	}
	if opts.MaxParallelThreads != nil && *opts.MaxParallelThreads > 0 {
		return strconv.Itoa(*opts.MaxParallelThreads)
	}
	return ""
}
