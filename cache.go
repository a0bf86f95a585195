package keel

import (
	"sync"

	"go.uber.org/multierr"
)

// suppressedLimit caps how many suppressed errors are preserved for an
// eventual top-level creation failure.
const suppressedLimit = 100

// instanceCache holds the three-state cache backing circular-reference
// resolution: finalized instances, early references for keys under
// construction, and pending one-shot factories. A key holds an early
// reference or a pending factory, never both.
//
// Except for the finalized map, which supports lock-free fast-path reads,
// all state is guarded by the registry's reentrant mutex.
type instanceCache struct {
	finalized  sync.Map // key -> finalized instance
	early      map[string]any
	factories  map[string]Factory
	order      []string // registration order
	registered map[string]struct{}
	suppressed []error // non-nil only while an outer creation is running
}

// newInstanceCache creates an empty cache.
func newInstanceCache() *instanceCache {
	return &instanceCache{
		early:      make(map[string]any),
		factories:  make(map[string]Factory),
		registered: make(map[string]struct{}),
	}
}

// get returns the finalized instance for key. Safe without the lock.
func (c *instanceCache) get(key string) (any, bool) {
	return c.finalized.Load(key)
}

// getEarly returns the early reference for key, if one is exposed.
func (c *instanceCache) getEarly(key string) (any, bool) {
	instance, ok := c.early[key]

	return instance, ok
}

// pendingFactory returns the pending factory for key, if one is registered.
func (c *instanceCache) pendingFactory(key string) (Factory, bool) {
	factory, ok := c.factories[key]

	return factory, ok
}

// storeEarly promotes a pending factory's result to an early reference and
// consumes the factory.
func (c *instanceCache) storeEarly(key string, instance any) {
	c.early[key] = instance
	delete(c.factories, key)
}

// addFinalized stores the finalized instance for key, clears any early
// reference and pending factory, and records the key in registration order.
func (c *instanceCache) addFinalized(key string, instance any) {
	c.finalized.Store(key, instance)
	delete(c.factories, key)
	delete(c.early, key)
	c.appendOrder(key)
}

// registerFactory pre-exposes a factory for a key that has no finalized
// instance yet. The factory itself counts as a registration.
func (c *instanceCache) registerFactory(key string, factory Factory) {
	if _, ok := c.finalized.Load(key); ok {
		return
	}

	c.factories[key] = factory
	delete(c.early, key)
	c.appendOrder(key)
}

// evict removes every trace of key from the cache.
func (c *instanceCache) evict(key string) {
	c.finalized.Delete(key)
	delete(c.factories, key)
	delete(c.early, key)

	if _, ok := c.registered[key]; ok {
		delete(c.registered, key)

		for i, name := range c.order {
			if name == key {
				c.order = append(c.order[:i], c.order[i+1:]...)

				break
			}
		}
	}
}

// clear drops every cached instance, factory and registration record.
func (c *instanceCache) clear() {
	c.finalized.Range(func(key, _ any) bool {
		c.finalized.Delete(key)

		return true
	})

	c.early = make(map[string]any)
	c.factories = make(map[string]Factory)
	c.order = nil
	c.registered = make(map[string]struct{})
}

// names returns all registered keys in registration order.
func (c *instanceCache) names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)

	return names
}

// count returns the number of registered keys.
func (c *instanceCache) count() int {
	return len(c.order)
}

// beginSuppression arms the suppressed-error buffer. Returns true when this
// call owns the buffer, i.e. it is the outermost creation.
func (c *instanceCache) beginSuppression() bool {
	if c.suppressed != nil {
		return false
	}

	c.suppressed = make([]error, 0, 4)

	return true
}

// endSuppression disarms the buffer after the outermost creation finishes.
func (c *instanceCache) endSuppression() {
	c.suppressed = nil
}

// addSuppressed records an error raised inside a running outer creation so
// the eventual top-level failure can report every contributing cause.
func (c *instanceCache) addSuppressed(err error) {
	if c.suppressed != nil && len(c.suppressed) < suppressedLimit {
		c.suppressed = append(c.suppressed, err)
	}
}

// attachSuppressed combines the recorded causes with a top-level failure.
func (c *instanceCache) attachSuppressed(err error) error {
	if len(c.suppressed) == 0 {
		return err
	}

	return multierr.Append(err, multierr.Combine(c.suppressed...))
}

func (c *instanceCache) appendOrder(key string) {
	if _, ok := c.registered[key]; ok {
		return
	}

	c.registered[key] = struct{}{}
	c.order = append(c.order, key)
}
