package runner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/testmux/testmux/exitcodes"
)

func TestOutcome_DefaultIsSuccess(t *testing.T) {
	var o outcome
	assert.Equal(t, exitcodes.Success, o.Code())
}

func TestOutcome_FailureDominatesSuccess(t *testing.T) {
	var o outcome
	o.Escalate(exitcodes.Success)
	o.Escalate(exitcodes.TestFailure)
	o.Escalate(exitcodes.Success)
	assert.Equal(t, exitcodes.TestFailure, o.Code())
}

func TestOutcome_FatalDominatesEverything(t *testing.T) {
	var o outcome
	o.Escalate(exitcodes.TestFailure)
	o.Escalate(exitcodes.FatalError)
	o.Escalate(exitcodes.TestFailure)
	o.Escalate(exitcodes.Success)
	assert.Equal(t, exitcodes.FatalError, o.Code())
}

func TestOutcome_OrderIndependentUnderConcurrency(t *testing.T) {
	var o outcome
	codes := []int{
		exitcodes.Success, exitcodes.TestFailure, exitcodes.FatalError,
		exitcodes.Success, exitcodes.TestFailure, exitcodes.Success,
	}

	var wg sync.WaitGroup
	for _, code := range codes {
		wg.Add(1)
		go func(code int) {
			defer wg.Done()
			o.Escalate(code)
		}(code)
	}
	wg.Wait()

	assert.Equal(t, exitcodes.FatalError, o.Code())
}
