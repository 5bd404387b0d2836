package runner

import (
	"fmt"
	"strconv"
)

// ParallelismMode distinguishes the three legal shapes of the max-threads
// setting.
type ParallelismMode int

const (
	// ParallelismDefault leaves the engine's own default in place.
	ParallelismDefault ParallelismMode = iota
	// ParallelismUnlimited removes the thread cap entirely.
	ParallelismUnlimited
	// ParallelismFixed caps the engine at N threads.
	ParallelismFixed
)

// Parallelism is the resolved max-parallel-threads setting passed through to
// the engine.
type Parallelism struct {
	Mode ParallelismMode
	N    int
}

// ParseParallelism parses a max-threads input string. Legal values are
// "default" (or empty), "unlimited", and a non-negative integer, where 0 is
// an explicit alias for unlimited. Anything else is a configuration error.
func ParseParallelism(s string) (Parallelism, error) {
	switch s {
	case "", "default":
		return Parallelism{Mode: ParallelismDefault}, nil
	case "unlimited":
		return Parallelism{Mode: ParallelismUnlimited}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Parallelism{}, fmt.Errorf("invalid max parallel threads value %q (expected \"default\", \"unlimited\", or a non-negative integer)", s)
	}
	if n == 0 {
		return Parallelism{Mode: ParallelismUnlimited}, nil
	}
	return Parallelism{Mode: ParallelismFixed, N: n}, nil
}

// Threads renders the setting for the engine contract: nil for the engine
// default, a pointer to 0 for unlimited, a pointer to N for a fixed cap.
func (p Parallelism) Threads() *int {
	switch p.Mode {
	case ParallelismUnlimited:
		zero := 0
		return &zero
	case ParallelismFixed:
		n := p.N
		return &n
	default:
		return nil
	}
}

func (p Parallelism) String() string {
	switch p.Mode {
	case ParallelismUnlimited:
		return "unlimited"
	case ParallelismFixed:
		return strconv.Itoa(p.N)
	default:
		return "default"
	}
}
