package gotest

import (
	"sync"
)

const defaultOutputTailBytes = 256 * 1024 // per-test output kept in memory

// tailBuffer keeps only the last N bytes written to it so a representative
// snippet of test output can be attached to the result without retaining the
// entire log in memory.
type tailBuffer struct {
	maxBytes int

	mu       sync.Mutex
	total    int64
	contents []byte
}

func newTailBuffer(maxBytes int) *tailBuffer {
	if maxBytes <= 0 {
		maxBytes = defaultOutputTailBytes
	}
	return &tailBuffer{maxBytes: maxBytes}
}

func (b *tailBuffer) WriteString(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += int64(len(s))
	b.contents = append(b.contents, s...)
	if len(b.contents) > b.maxBytes {
		// Trim the front to keep the most recent bytes
		b.contents = b.contents[len(b.contents)-b.maxBytes:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.contents)
}

func (b *tailBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.contents)) < b.total
}
