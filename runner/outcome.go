package runner

import (
	"sync/atomic"

	"github.com/testmux/testmux/exitcodes"
)

// outcome merges exit-code signals from concurrently completing assemblies.
// FatalError dominates TestFailure dominates Success; the merge is a
// compare-and-swap on severity rank, so the result is independent of arrival
// order and a naive last-write can never downgrade a fatal signal.
type outcome struct {
	rank atomic.Int32
}

func severity(code int) int32 {
	switch code {
	case exitcodes.FatalError:
		return 2
	case exitcodes.TestFailure:
		return 1
	default:
		return 0
	}
}

// Escalate records code if it is more severe than anything seen so far.
func (o *outcome) Escalate(code int) {
	s := severity(code)
	for {
		cur := o.rank.Load()
		if cur >= s {
			return
		}
		if o.rank.CompareAndSwap(cur, s) {
			return
		}
	}
}

// Code returns the dominant exit code observed.
func (o *outcome) Code() int {
	switch o.rank.Load() {
	case 2:
		return exitcodes.FatalError
	case 1:
		return exitcodes.TestFailure
	default:
		return exitcodes.Success
	}
}
