package keel

import (
	"fmt"
	"sync"
)

// creationTracker tracks which keys are currently inside the creation
// protocol. Keys in the exclusion set bypass the in-creation checks
// entirely; their construction is known to be safe to reenter.
type creationTracker struct {
	inCreation map[string]struct{}
	exclusions map[string]struct{}
	mu         sync.Mutex
}

// newCreationTracker creates an empty tracker.
func newCreationTracker() *creationTracker {
	return &creationTracker{
		inCreation: make(map[string]struct{}),
		exclusions: make(map[string]struct{}),
	}
}

// before marks key as in creation. Fails when the key is already being
// created and is not excluded from the check, which signals a genuine
// unresolvable construction cycle.
func (t *creationTracker) before(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, excluded := t.exclusions[key]; excluded {
		return nil
	}

	if _, creating := t.inCreation[key]; creating {
		return ErrCurrentlyInCreation(key)
	}

	t.inCreation[key] = struct{}{}

	return nil
}

// after clears the in-creation mark for key. A missing mark for a
// non-excluded key is an internal invariant violation, not a user error.
func (t *creationTracker) after(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, excluded := t.exclusions[key]; excluded {
		return nil
	}

	if _, creating := t.inCreation[key]; !creating {
		return ErrIllegalState(fmt.Sprintf("key '%s' is not currently in creation", key))
	}

	delete(t.inCreation, key)

	return nil
}

// setCurrentlyInCreation controls whether key participates in in-creation
// checks. Passing false adds the key to the exclusion set.
func (t *creationTracker) setCurrentlyInCreation(key string, inCreation bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !inCreation {
		t.exclusions[key] = struct{}{}
	} else {
		delete(t.exclusions, key)
	}
}

// isCurrentlyInCreation reports whether key is in creation and not excluded.
func (t *creationTracker) isCurrentlyInCreation(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, excluded := t.exclusions[key]; excluded {
		return false
	}

	_, creating := t.inCreation[key]

	return creating
}

// isActuallyInCreation reports whether key is in the in-creation set,
// ignoring exclusions.
func (t *creationTracker) isActuallyInCreation(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, creating := t.inCreation[key]

	return creating
}
