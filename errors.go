package testmux

import (
	"errors"
	"fmt"
)

// ConfigError represents an invalid configuration detected before any
// assembly executes. The run never starts; the process exits with the fatal
// code, but the signal stays distinguishable from a runtime failure.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(err error) *ConfigError {
	return &ConfigError{Err: err}
}

// IsConfigError checks if the error is or wraps a ConfigError
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return err != nil && errors.As(err, &cfgErr)
}

// FatalError represents a fatal failure during discovery, execution, or report
// generation. It maps to exit code -1 and dominates every other signal.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError creates a new FatalError
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// IsFatalError checks if the error is or wraps a FatalError
func IsFatalError(err error) bool {
	var fatalErr *FatalError
	return err != nil && errors.As(err, &fatalErr)
}

// TestFailureError represents a clean run in which one or more tests failed
// (exit code 1).
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
