package testmux

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorPredicate(t *testing.T) {
	err := NewConfigError(errors.New("bad flag"))
	assert.True(t, IsConfigError(err))
	assert.False(t, IsFatalError(err))
	assert.False(t, IsTestFailureError(err))
	assert.Contains(t, err.Error(), "bad flag")
}

func TestFatalErrorPredicate(t *testing.T) {
	err := NewFatalError(errors.New("engine exploded"))
	assert.True(t, IsFatalError(err))
	assert.False(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "engine exploded")
}

func TestTestFailureErrorPredicate(t *testing.T) {
	err := NewTestFailureError("3 of 10 tests failed")
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsFatalError(err))
	assert.Equal(t, "test failure: 3 of 10 tests failed", err.Error())
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("while starting: %w", NewConfigError(errors.New("no assemblies")))
	assert.True(t, IsConfigError(wrapped))

	wrapped = fmt.Errorf("run: %w", NewFatalError(errors.New("boom")))
	assert.True(t, IsFatalError(wrapped))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	assert.ErrorIs(t, NewConfigError(cause), cause)
	assert.ErrorIs(t, NewFatalError(cause), cause)
}

func TestPredicatesRejectNilAndForeign(t *testing.T) {
	assert.False(t, IsConfigError(nil))
	assert.False(t, IsFatalError(nil))
	assert.False(t, IsTestFailureError(nil))
	assert.False(t, IsConfigError(errors.New("plain")))
}
