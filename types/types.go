package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass  TestStatus = "pass"
	TestStatusFail  TestStatus = "fail"
	TestStatusSkip  TestStatus = "skip"
	TestStatusError TestStatus = "error"
)

// AssemblyConfig holds the per-assembly settings resolved from the optional
// config file next to an assembly. Zero value is a valid default.
type AssemblyConfig struct {
	// Parallelize reports whether this assembly prefers parallel execution.
	// Unset defaults to true, matching the orchestrator's inference rule.
	Parallelize *bool `yaml:"parallelize,omitempty"`
	// Diagnostics enables verbose engine logging for this assembly.
	Diagnostics bool `yaml:"diagnostics,omitempty"`
	// Traits assigns name/value tags to test cases, keyed by test name.
	Traits map[string]map[string][]string `yaml:"traits,omitempty"`
}

// ParallelizeDefault resolves the assembly's parallelization preference.
func (c AssemblyConfig) ParallelizeDefault() bool {
	return c.Parallelize == nil || *c.Parallelize
}

// ParseAssemblyConfig decodes an assembly config document.
func ParseAssemblyConfig(data []byte) (AssemblyConfig, error) {
	var cfg AssemblyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AssemblyConfig{}, fmt.Errorf("parsing assembly config: %w", err)
	}
	return cfg, nil
}

// AssemblyTarget identifies one assembly to run, together with its resolved
// configuration. Immutable once built.
type AssemblyTarget struct {
	Path       string
	ConfigPath string
	Config     AssemblyConfig
}

// DisplayName returns the aggregation key for this target: the file name
// without its extension.
func (t AssemblyTarget) DisplayName() string {
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExecutionSummary captures the counts and timing for one finished assembly.
// It is written exactly once by the assembly execution unit and read-only
// afterward. Passed count is implicit: Total minus the other outcomes.
type ExecutionSummary struct {
	Name    string
	Total   int
	Failed  int
	Skipped int
	Errored int
	Time    time.Duration
}

// Passed returns the implicit passed-test count.
func (s ExecutionSummary) Passed() int {
	return s.Total - s.Failed - s.Skipped - s.Errored
}

// Add returns the element-wise sum of two summaries. The merge is commutative
// and associative so grand totals are identical regardless of completion order.
func (s ExecutionSummary) Add(other ExecutionSummary) ExecutionSummary {
	return ExecutionSummary{
		Name:    s.Name,
		Total:   s.Total + other.Total,
		Failed:  s.Failed + other.Failed,
		Skipped: s.Skipped + other.Skipped,
		Errored: s.Errored + other.Errored,
		Time:    s.Time + other.Time,
	}
}
