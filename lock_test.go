package keel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReentrantMutex_Reenter(t *testing.T) {
	var m reentrantMutex

	m.Lock()
	m.Lock() // would deadlock with a plain mutex
	m.Unlock()
	m.Unlock()

	// Fully released: another goroutine can acquire it.
	acquired := make(chan struct{})

	go func() {
		m.Lock()
		defer m.Unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("mutex was not released after balanced unlocks")
	}
}

func TestReentrantMutex_ExcludesOtherGoroutines(t *testing.T) {
	var m reentrantMutex

	counter := 0

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				m.Lock()
				m.Lock()
				counter++
				m.Unlock()
				m.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 800, counter)
}

func TestGoroutineID_StableWithinGoroutine(t *testing.T) {
	assert.Equal(t, goroutineID(), goroutineID())
	assert.NotZero(t, goroutineID())

	var other uint64

	done := make(chan struct{})

	go func() {
		other = goroutineID()
		close(done)
	}()

	<-done
	assert.NotEqual(t, goroutineID(), other)
}
