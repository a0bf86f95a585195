package keel

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// registryImpl implements Registry.
type registryImpl struct {
	cache      *instanceCache
	creation   *creationTracker
	aliases    *aliasResolver
	graph      *dependencyGraph
	middleware *middlewareChain
	logger     *zap.Logger

	disposers     map[string]Disposer
	disposerOrder []string
	disposerMu    sync.Mutex

	// inDestruction is guarded by mu. Once set by DestroyAll it stays set:
	// a torn-down registry permanently rejects creation.
	inDestruction bool

	// mu guards the instance cache's mutable state and the creation
	// protocol. It is reentrant so a factory running under it can resolve
	// nested dependencies through the public entry points on the same
	// call stack, while competing goroutines block until the holder
	// finishes construction.
	mu reentrantMutex
}

// newRegistry creates a new registry implementation.
func newRegistry(opts ...Option) *registryImpl {
	aliases := newAliasResolver()

	r := &registryImpl{
		cache:      newInstanceCache(),
		creation:   newCreationTracker(),
		aliases:    aliases,
		graph:      newDependencyGraph(aliases.canonicalize),
		middleware: newMiddlewareChain(),
		logger:     zap.NewNop(),
		disposers:  make(map[string]Disposer),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// GetOrCreate returns the finalized instance for key, building it with
// factory if absent.
func (r *registryImpl) GetOrCreate(key string, factory Factory) (any, error) {
	if key == "" {
		return nil, ErrInvalidArgument("key must not be empty")
	}

	if factory == nil {
		return nil, ErrInvalidArgument("factory must not be nil")
	}

	name := r.aliases.canonicalize(key)

	// Fast path: no lock for an already-finalized instance.
	if instance, ok := r.cache.get(name); ok {
		return instance, nil
	}

	ctx := context.Background()

	if err := r.middleware.beforeCreate(ctx, name); err != nil {
		return nil, err
	}

	instance, err := r.getOrCreate(name, factory)

	if mwErr := r.middleware.afterCreate(ctx, name, instance, err); mwErr != nil {
		return nil, mwErr
	}

	return instance, err
}

// getOrCreate runs the creation protocol for an already-canonical name.
func (r *registryImpl) getOrCreate(name string, factory Factory) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock: a concurrent builder may have finished while we
	// were waiting.
	if instance, ok := r.cache.get(name); ok {
		return instance, nil
	}

	if r.inDestruction {
		return nil, ErrCreationNotAllowed(name)
	}

	r.logger.Debug("creating shared instance", zap.String("key", name))

	if err := r.creation.before(name); err != nil {
		return nil, err
	}

	// The outermost creation owns the suppressed-error buffer; failures in
	// nested creations are recorded into it below.
	outermost := r.cache.beginSuppression()

	instance, err := factory()
	if err != nil && errors.Is(err, ErrStateChanged) {
		// The instance appeared some other way while the factory was
		// computing it. Proceed with it if it is actually there.
		if appeared, ok := r.cache.get(name); ok {
			instance, err = appeared, nil
		}
	}

	if err != nil {
		if outermost {
			err = r.cache.attachSuppressed(err)
		} else {
			r.cache.addSuppressed(err)
		}
	}

	if outermost {
		r.cache.endSuppression()
	}

	if afterErr := r.creation.after(name); afterErr != nil {
		return nil, afterErr
	}

	if err != nil {
		return nil, err
	}

	r.cache.addFinalized(name, instance)

	return instance, nil
}

// Get returns the finalized instance for key, if any.
func (r *registryImpl) Get(key string) (any, bool) {
	return r.cache.get(r.aliases.canonicalize(key))
}

// GetEarly returns a reference to an instance currently under construction,
// resolving a circular reference through its pending factory if necessary.
func (r *registryImpl) GetEarly(key string) (any, error) {
	name := r.aliases.canonicalize(key)

	// Quick checks without the full lock: the other builder may already
	// have finished, and a key that is not mid-construction has nothing
	// early to offer.
	if instance, ok := r.cache.get(name); ok {
		return instance, nil
	}

	if !r.creation.isActuallyInCreation(name) {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if instance, ok := r.cache.get(name); ok {
		return instance, nil
	}

	if instance, ok := r.cache.getEarly(name); ok {
		return instance, nil
	}

	factory, ok := r.cache.pendingFactory(name)
	if !ok {
		return nil, nil
	}

	instance, err := factory()
	if err != nil {
		return nil, err
	}

	r.cache.storeEarly(name, instance)

	return instance, nil
}

// RegisterFinalized stores an externally built instance under key.
func (r *registryImpl) RegisterFinalized(key string, instance any) error {
	if key == "" {
		return ErrInvalidArgument("key must not be empty")
	}

	if instance == nil {
		return ErrInvalidArgument("instance must not be nil")
	}

	name := r.aliases.canonicalize(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.cache.get(name); ok {
		if identical(existing, instance) {
			return nil
		}

		return ErrAlreadyRegistered(name)
	}

	r.cache.addFinalized(name, instance)

	return nil
}

// RegisterPendingFactory pre-exposes a one-shot factory for key so another
// in-progress construction can obtain an early reference to it. Only takes
// effect while no finalized instance exists for the key.
func (r *registryImpl) RegisterPendingFactory(key string, factory Factory) error {
	if key == "" {
		return ErrInvalidArgument("key must not be empty")
	}

	if factory == nil {
		return ErrInvalidArgument("factory must not be nil")
	}

	name := r.aliases.canonicalize(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.registerFactory(name, factory)

	return nil
}

// Contains reports whether a finalized instance exists for key.
func (r *registryImpl) Contains(key string) bool {
	_, ok := r.cache.get(r.aliases.canonicalize(key))

	return ok
}

// Names returns all registered keys in registration order.
func (r *registryImpl) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cache.names()
}

// Count returns the number of registered keys.
func (r *registryImpl) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cache.count()
}

// IsCurrentlyInCreation reports whether key is inside the creation protocol
// and not excluded from in-creation checks.
func (r *registryImpl) IsCurrentlyInCreation(key string) bool {
	return r.creation.isCurrentlyInCreation(r.aliases.canonicalize(key))
}

// SetCurrentlyInCreation controls the in-creation check for key. Passing
// false exempts the key from reentrancy checks entirely.
func (r *registryImpl) SetCurrentlyInCreation(key string, inCreation bool) {
	r.creation.setCurrentlyInCreation(r.aliases.canonicalize(key), inCreation)
}

// RegisterAlias maps alias to canonical.
func (r *registryImpl) RegisterAlias(canonical, alias string) error {
	return r.aliases.register(canonical, alias)
}

// RemoveAlias removes a registered alias.
func (r *registryImpl) RemoveAlias(alias string) error {
	return r.aliases.remove(alias)
}

// IsAlias reports whether name is a registered alias.
func (r *registryImpl) IsAlias(name string) bool {
	return r.aliases.isAlias(name)
}

// Aliases returns all aliases whose chain resolves to canonical.
func (r *registryImpl) Aliases(canonical string) []string {
	return r.aliases.aliasesOf(canonical)
}

// Canonicalize follows alias edges until a terminal name is reached.
func (r *registryImpl) Canonicalize(name string) string {
	return r.aliases.canonicalize(name)
}

// ResolveAll applies transform to every alias and canonical target.
func (r *registryImpl) ResolveAll(transform func(string) string) error {
	if transform == nil {
		return ErrInvalidArgument("transform must not be nil")
	}

	return r.aliases.resolveAll(transform)
}

// RegisterDependency records that dependentKey must be destroyed before key.
func (r *registryImpl) RegisterDependency(key, dependentKey string) {
	r.graph.registerDependency(key, dependentKey)
}

// RegisterContainment records that outerKey contains innerKey.
func (r *registryImpl) RegisterContainment(innerKey, outerKey string) {
	r.graph.registerContainment(innerKey, outerKey)
}

// IsDependent reports whether candidate depends on key, transitively.
func (r *registryImpl) IsDependent(key, candidate string) bool {
	return r.graph.isDependent(key, candidate)
}

// DependentsOf returns the keys that depend on key.
func (r *registryImpl) DependentsOf(key string) []string {
	return r.graph.dependentsOf(r.aliases.canonicalize(key))
}

// DependenciesOf returns the keys that key depends on.
func (r *registryImpl) DependenciesOf(key string) []string {
	return r.graph.dependenciesOf(key)
}

// RegisterDisposal records a callback invoked when key is destroyed.
// Re-registering replaces the callback but keeps the original registration
// position in teardown order.
func (r *registryImpl) RegisterDisposal(key string, d Disposer) {
	if key == "" || d == nil {
		return
	}

	name := r.aliases.canonicalize(key)

	r.disposerMu.Lock()
	defer r.disposerMu.Unlock()

	if _, ok := r.disposers[name]; !ok {
		r.disposerOrder = append(r.disposerOrder, name)
	}

	r.disposers[name] = d
}

// Use installs middleware around create and destroy operations.
func (r *registryImpl) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middleware.add(mw)
}

// identical reports whether a and b are the same instance. Values of
// uncomparable types never count as identical.
func identical(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}

	return a == b
}
