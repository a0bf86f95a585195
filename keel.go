package keel

// Factory creates an instance for a key. It is supplied by the caller and
// may recursively resolve other keys through the same registry.
type Factory func() (any, error)

// Disposer releases an instance's resources during teardown.
type Disposer func() error

// Registry creates, caches and tears down named shared instances.
//
// Each key holds at most one finalized instance. Construction-time circular
// references are resolvable when the constructing factory registers a
// pending self-factory before recursing (see RegisterPendingFactory);
// a plain factory that simply recurses back into its own key fails with
// a CURRENTLY_IN_CREATION error instead.
type Registry interface {
	// GetOrCreate returns the finalized instance for key, invoking factory
	// to build it if absent. Concurrent callers for the same key block until
	// the first builder finishes; the factory runs at most once per key.
	GetOrCreate(key string, factory Factory) (any, error)

	// Get returns the finalized instance for key, if any.
	Get(key string) (any, bool)

	// GetEarly returns a reference to an instance that is currently under
	// construction: the finalized instance if it appeared in the meantime,
	// an already-exposed early reference, or the result of the key's pending
	// factory (invoked exactly once). Returns nil, nil when the key is not
	// being constructed at all.
	GetEarly(key string) (any, error)

	// RegisterFinalized stores an externally built instance under key.
	RegisterFinalized(key string, instance any) error

	// RegisterPendingFactory pre-exposes a one-shot factory for a key whose
	// construction is in progress, allowing another in-progress construction
	// to obtain an early reference to it. This is the caller contract that
	// makes circular references resolvable: it must be called before the
	// constructing factory recurses into its dependents.
	RegisterPendingFactory(key string, factory Factory) error

	// Contains reports whether a finalized instance exists for key.
	Contains(key string) bool

	// Names returns the keys of all registered instances in registration order.
	Names() []string

	// Count returns the number of registered instances.
	Count() int

	// IsCurrentlyInCreation reports whether key is inside the creation
	// protocol and not excluded from in-creation checks.
	IsCurrentlyInCreation(key string) bool

	// SetCurrentlyInCreation controls the in-creation check for key.
	// Passing false excludes the key from reentrancy checks entirely.
	SetCurrentlyInCreation(key string, inCreation bool)

	// RegisterAlias maps alias to canonical. Alias chains must stay acyclic.
	RegisterAlias(canonical, alias string) error

	// RemoveAlias removes a registered alias.
	RemoveAlias(alias string) error

	// IsAlias reports whether name is a registered alias.
	IsAlias(name string) bool

	// Aliases returns all aliases whose chain resolves to canonical.
	Aliases(canonical string) []string

	// Canonicalize follows alias edges until a terminal name is reached.
	Canonicalize(name string) string

	// ResolveAll applies transform to every alias and canonical target,
	// reconciling collisions produced by the transform.
	ResolveAll(transform func(string) string) error

	// RegisterDependency records that dependentKey depends on key:
	// dependentKey must be destroyed before key.
	RegisterDependency(key, dependentKey string)

	// RegisterContainment records that outerKey contains innerKey, which
	// also registers a destroy-order dependency between them.
	RegisterContainment(innerKey, outerKey string)

	// IsDependent reports whether candidate depends on key, transitively.
	IsDependent(key, candidate string) bool

	// DependentsOf returns the keys that depend on key.
	DependentsOf(key string) []string

	// DependenciesOf returns the keys that key's dependents rely on.
	DependenciesOf(key string) []string

	// RegisterDisposal records a callback invoked when key is destroyed.
	RegisterDisposal(key string, d Disposer)

	// Destroy tears down key: dependents first, then the disposal callback,
	// then contained instances, then every edge the key participates in.
	Destroy(key string)

	// DestroyAll tears down every registered instance in reverse
	// registration order and permanently rejects further creation.
	DestroyAll()

	// Use installs middleware around create and destroy operations.
	Use(mw Middleware)
}

// New creates an empty registry.
func New(opts ...Option) Registry {
	return newRegistry(opts...)
}
