// Package reporter formats per-assembly progress for the environment the run
// executes in. The concrete reporter is chosen once at startup and injected
// into the orchestrator; nothing downstream branches on the environment.
package reporter

import (
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testmux/testmux/types"
)

// teamCityEnvVar marks a TeamCity build agent; its presence selects the
// service-message reporter.
const teamCityEnvVar = "TEAMCITY_PROJECT_NAME"

// Reporter receives progress notifications from the orchestrator. Methods may
// be called concurrently from distinct assembly execution units.
type Reporter interface {
	AssemblyStarted(name string)
	AssemblyDiscovered(name string, found, selected int)
	TestFailed(assembly, test, message string)
	AssemblyFinished(summary types.ExecutionSummary)
	AssemblyErrored(name string, err error)
}

// ForEnvironment selects the reporter matching the current environment.
func ForEnvironment(logger log.Logger) Reporter {
	if os.Getenv(teamCityEnvVar) != "" {
		return NewTeamCityReporter(os.Stdout)
	}
	return NewConsoleReporter(logger)
}

// consoleReporter reports progress through the structured logger.
type consoleReporter struct {
	log log.Logger
}

// NewConsoleReporter creates the default log-based reporter.
func NewConsoleReporter(logger log.Logger) Reporter {
	if logger == nil {
		logger = log.New()
	}
	return &consoleReporter{log: logger}
}

func (r *consoleReporter) AssemblyStarted(name string) {
	r.log.Info("Starting assembly", "assembly", name)
}

func (r *consoleReporter) AssemblyDiscovered(name string, found, selected int) {
	r.log.Info("Discovered tests", "assembly", name, "found", found, "selected", selected)
}

func (r *consoleReporter) TestFailed(assembly, test, message string) {
	r.log.Error("Test failed", "assembly", assembly, "test", test, "message", message)
}

func (r *consoleReporter) AssemblyFinished(summary types.ExecutionSummary) {
	r.log.Info("Finished assembly",
		"assembly", summary.Name,
		"total", summary.Total,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"errors", summary.Errored,
		"elapsed", summary.Time)
}

func (r *consoleReporter) AssemblyErrored(name string, err error) {
	r.log.Error("Assembly execution failed", "assembly", name, "error", err)
}
