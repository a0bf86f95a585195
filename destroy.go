package keel

import (
	"context"

	"go.uber.org/zap"
)

// DestroyAll tears down the whole registry: every key with a registered
// disposal callback is destroyed in reverse registration order, then all
// graph edges and cached instances are dropped. Afterwards the registry
// permanently rejects creation.
func (r *registryImpl) DestroyAll() {
	r.logger.Debug("destroying all registered instances")

	r.mu.Lock()
	r.inDestruction = true
	r.mu.Unlock()

	r.disposerMu.Lock()
	names := make([]string, len(r.disposerOrder))
	copy(names, r.disposerOrder)
	r.disposerMu.Unlock()

	for i := len(names) - 1; i >= 0; i-- {
		r.Destroy(names[i])
	}

	r.graph.clear()

	r.mu.Lock()
	r.cache.clear()
	r.mu.Unlock()
}

// Destroy tears down key: the key is evicted from the cache, its dependents
// are destroyed first, then its disposal callback runs, then its contained
// instances are destroyed, and finally every edge it participates in is
// scrubbed from the graph.
func (r *registryImpl) Destroy(key string) {
	name := r.aliases.canonicalize(key)
	ctx := context.Background()

	if err := r.middleware.beforeDestroy(ctx, name); err != nil {
		r.logger.Warn("destroy middleware failed",
			zap.String("key", name), zap.Error(err))
	}

	r.mu.Lock()
	r.cache.evict(name)
	r.mu.Unlock()

	r.disposerMu.Lock()
	disposer := r.disposers[name]
	delete(r.disposers, name)

	for i, registered := range r.disposerOrder {
		if registered == name {
			r.disposerOrder = append(r.disposerOrder[:i], r.disposerOrder[i+1:]...)

			break
		}
	}
	r.disposerMu.Unlock()

	r.destroyInstance(name, disposer)

	if err := r.middleware.afterDestroy(ctx, name); err != nil {
		r.logger.Warn("destroy middleware failed",
			zap.String("key", name), zap.Error(err))
	}
}

// destroyInstance walks the teardown order for name. Dependents must not
// outlive what they depend on, so they go first; disposal errors are logged
// and swallowed because destruction must run to completion.
func (r *registryImpl) destroyInstance(name string, disposer Disposer) {
	dependents := r.graph.removeDependents(name)
	if len(dependents) > 0 {
		r.logger.Debug("destroying dependent instances",
			zap.String("key", name), zap.Int("dependents", len(dependents)))

		for dependent := range dependents {
			r.Destroy(dependent)
		}
	}

	if disposer != nil {
		if err := disposer(); err != nil {
			r.logger.Warn("disposal callback failed",
				zap.String("key", name), zap.Error(err))
		}
	}

	for inner := range r.graph.removeContained(name) {
		r.Destroy(inner)
	}

	r.graph.scrub(name)
}
