package types

import (
	"encoding/xml"
	"fmt"
	"sync"
	"time"
)

// ResultRoot is the root of the structured result tree for one run. It is only
// constructed when at least one output format was requested; assembly subtrees
// are appended in completion order, which under parallel execution is
// unspecified.
type ResultRoot struct {
	XMLName   xml.Name `xml:"assemblies"`
	Timestamp string   `xml:"timestamp,attr"`

	mu         sync.Mutex
	Assemblies []*AssemblyResult `xml:"assembly"`
}

// NewResultRoot creates an empty result tree stamped with the run start time.
func NewResultRoot(start time.Time) *ResultRoot {
	return &ResultRoot{Timestamp: start.Format("01/02/2006 15:04:05")}
}

// Append adds one finished assembly subtree. Safe for concurrent use.
func (r *ResultRoot) Append(a *AssemblyResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Assemblies = append(r.Assemblies, a)
}

// AssemblyResult is the subtree recorded for one assembly. It is owned by its
// assembly execution unit while running and handed to the result root on
// completion.
type AssemblyResult struct {
	Name       string        `xml:"name,attr"`
	ConfigFile string        `xml:"config-file,attr,omitempty"`
	Total      int           `xml:"total,attr"`
	Passed     int           `xml:"passed,attr"`
	Failed     int           `xml:"failed,attr"`
	Skipped    int           `xml:"skipped,attr"`
	Errors     int           `xml:"errors,attr"`
	Time       string        `xml:"time,attr"`
	RunDate    string        `xml:"run-date,attr"`
	RunTime    string        `xml:"run-time,attr"`
	Tests      []*CaseResult `xml:"test"`
}

// Stamp records the wall-clock start and elapsed time on the subtree.
func (a *AssemblyResult) Stamp(start time.Time, elapsed time.Duration) {
	a.RunDate = start.Format("2006-01-02")
	a.RunTime = start.Format("15:04:05")
	a.Time = FormatSeconds(elapsed)
}

// CaseResult records the outcome of one executed test case.
type CaseResult struct {
	Name    string       `xml:"name,attr"`
	Result  string       `xml:"result,attr"`
	Time    string       `xml:"time,attr"`
	Traits  []Trait      `xml:"traits>trait,omitempty"`
	Failure *CaseFailure `xml:"failure,omitempty"`
}

// Trait is one name/value tag attached to a test case.
type Trait struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// CaseFailure carries the failure output of a failed test case.
type CaseFailure struct {
	Message string `xml:"message"`
	Output  string `xml:"output,omitempty"`
}

// ResultString maps a test status onto the result attribute values used in the
// native output format.
func ResultString(status TestStatus) string {
	switch status {
	case TestStatusPass:
		return "Pass"
	case TestStatusFail:
		return "Fail"
	case TestStatusSkip:
		return "Skip"
	default:
		return "Error"
	}
}

// FormatSeconds renders a duration as fractional seconds, the unit used
// throughout the result tree.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
