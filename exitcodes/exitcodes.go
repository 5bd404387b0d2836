// Package exitcodes defines the standard exit codes used by testmux.
package exitcodes

// Exit code constants used by testmux
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every recorded assembly finished with zero failed tests
// * TestFailure (1): Used when one or more tests failed
// * FatalError (-1): Used for configuration errors and fatal errors during
//   discovery or execution (the shell observes -1 as 255)
//
// FatalError dominates TestFailure, which dominates Success, regardless of the
// order in which concurrent assemblies finish.
const (
	Success     = 0  // All tests pass
	TestFailure = 1  // Test failures
	FatalError  = -1 // Configuration or runtime errors
)
