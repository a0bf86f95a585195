package keel

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// reentrantMutex is a mutex that may be re-acquired by the goroutine that
// already holds it. The instance cache needs this: a factory running under
// the cache lock may resolve nested dependencies through the same public
// entry points on the same call stack.
type reentrantMutex struct {
	mu    sync.Mutex
	owner atomic.Uint64
	depth int
}

// Lock acquires the mutex, re-entering if the calling goroutine holds it.
func (m *reentrantMutex) Lock() {
	gid := goroutineID()
	if m.owner.Load() == gid {
		m.depth++

		return
	}

	m.mu.Lock()
	m.owner.Store(gid)
	m.depth = 1
}

// Unlock releases one level of the mutex; the underlying lock is released
// when the outermost acquisition unlocks.
func (m *reentrantMutex) Unlock() {
	m.depth--
	if m.depth > 0 {
		return
	}

	m.owner.Store(0)
	m.mu.Unlock()
}

// goroutineID extracts the current goroutine id from the stack header
// ("goroutine 123 [running]:"). Goroutine ids start at 1, so 0 is free to
// mean "unowned".
func goroutineID() uint64 {
	var buf [64]byte

	n := runtime.Stack(buf[:], false)

	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}

	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}

	return id
}
