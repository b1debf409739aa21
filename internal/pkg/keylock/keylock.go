// Package keylock provides striped mutual exclusion keyed by string.
//
// Keys are mapped onto a fixed set of mutexes with fnv-32a, so two callers
// holding the same key are always serialized while unrelated keys rarely
// contend. The number of stripes bounds memory regardless of key count.
package keylock

import (
	"hash/fnv"
	"sync"
)

const defaultStripes = 64

// Striped is a fixed-size set of mutexes addressed by key.
type Striped struct {
	stripes []sync.Mutex
}

// New creates a Striped lock with n stripes.
// If n <= 0, defaultStripes is used.
func New(n int) *Striped {
	if n <= 0 {
		n = defaultStripes
	}
	return &Striped{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the stripe for key and returns its unlock function.
func (s *Striped) Lock(key string) (unlock func()) {
	mu := &s.stripes[s.index(key)]
	mu.Lock()
	return mu.Unlock
}

// index maps a key deterministically to a stripe.
func (s *Striped) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.stripes)))
}
