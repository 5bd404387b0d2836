package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/testmux/testmux/types"
)

// teamCityReporter emits TeamCity service messages so the build UI can track
// assemblies as test suites in real time.
type teamCityReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTeamCityReporter creates a reporter writing service messages to w.
func NewTeamCityReporter(w io.Writer) Reporter {
	return &teamCityReporter{w: w}
}

func (r *teamCityReporter) AssemblyStarted(name string) {
	r.message("testSuiteStarted", "name", name)
}

func (r *teamCityReporter) AssemblyDiscovered(name string, found, selected int) {
	r.message("message", "text", fmt.Sprintf("%s: %d of %d tests selected", name, selected, found))
}

func (r *teamCityReporter) TestFailed(assembly, test, message string) {
	r.message("testFailed", "name", assembly+": "+test, "message", message)
}

func (r *teamCityReporter) AssemblyFinished(summary types.ExecutionSummary) {
	r.message("testSuiteFinished", "name", summary.Name)
}

func (r *teamCityReporter) AssemblyErrored(name string, err error) {
	r.message("message", "text", name+": "+err.Error(), "status", "ERROR")
	r.message("testSuiteFinished", "name", name)
}

func (r *teamCityReporter) message(name string, attrs ...string) {
	var b strings.Builder
	b.WriteString("##teamcity[")
	b.WriteString(name)
	for i := 0; i+1 < len(attrs); i += 2 {
		fmt.Fprintf(&b, " %s='%s'", attrs[i], escape(attrs[i+1]))
	}
	b.WriteString("]\n")

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, b.String())
}

// escape applies TeamCity service-message escaping.
func escape(s string) string {
	replacer := strings.NewReplacer(
		"|", "||",
		"'", "|'",
		"\n", "|n",
		"\r", "|r",
		"[", "|[",
		"]", "|]",
	)
	return replacer.Replace(s)
}
