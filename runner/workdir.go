package runner

import (
	"fmt"
	"os"
)

// enterWorkDir switches the process working directory for the duration of a
// run. The working directory is process-global, so the change is made once
// before any concurrent work starts and restored only after all work has
// settled; per-assembly isolation would need per-assembly processes.
func enterWorkDir(path string) (restore func() error, err error) {
	if path == "" {
		return func() error { return nil }, nil
	}
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("reading current working directory: %w", err)
	}
	if err := os.Chdir(path); err != nil {
		return nil, fmt.Errorf("entering working directory %s: %w", path, err)
	}
	return func() error { return os.Chdir(prev) }, nil
}
