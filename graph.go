package keel

import "sync"

// dependencyGraph records containment and depends-on edges between keys and
// derives teardown order from them. Edges are indexed both ways: dependents
// maps a key to everything that relies on it, dependencies maps a dependent
// back to everything it relies on.
type dependencyGraph struct {
	contained    map[string]map[string]struct{} // outer key -> contained inner keys
	dependents   map[string]map[string]struct{} // key -> keys that depend on it
	dependencies map[string]map[string]struct{} // dependent -> keys it depends on
	canon        func(string) string
	mu           sync.Mutex
}

// newDependencyGraph creates an empty graph. canon resolves aliases to
// canonical keys before edges are recorded or followed.
func newDependencyGraph(canon func(string) string) *dependencyGraph {
	return &dependencyGraph{
		contained:    make(map[string]map[string]struct{}),
		dependents:   make(map[string]map[string]struct{}),
		dependencies: make(map[string]map[string]struct{}),
		canon:        canon,
	}
}

// registerContainment records that outerKey contains innerKey. Containment
// implies a destroy-order dependency, so a fresh edge also registers the
// matching dependency pair. Duplicate edges are a no-op.
func (g *dependencyGraph) registerContainment(innerKey, outerKey string) {
	g.mu.Lock()

	inner, ok := g.contained[outerKey]
	if !ok {
		inner = make(map[string]struct{})
		g.contained[outerKey] = inner
	}

	if _, dup := inner[innerKey]; dup {
		g.mu.Unlock()

		return
	}

	inner[innerKey] = struct{}{}
	g.mu.Unlock()

	g.registerDependency(innerKey, outerKey)
}

// registerDependency records that dependentKey depends on key, so it must
// be destroyed before key. Idempotent per edge.
func (g *dependencyGraph) registerDependency(key, dependentKey string) {
	canonical := g.canon(key)

	g.mu.Lock()
	defer g.mu.Unlock()

	dependents, ok := g.dependents[canonical]
	if !ok {
		dependents = make(map[string]struct{})
		g.dependents[canonical] = dependents
	}

	if _, dup := dependents[dependentKey]; dup {
		return
	}

	dependents[dependentKey] = struct{}{}

	dependencies, ok := g.dependencies[dependentKey]
	if !ok {
		dependencies = make(map[string]struct{})
		g.dependencies[dependentKey] = dependencies
	}

	dependencies[canonical] = struct{}{}
}

// isDependent reports whether candidate depends on key, directly or through
// any chain of dependents.
func (g *dependencyGraph) isDependent(key, candidate string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.isDependentLocked(key, candidate, nil)
}

// isDependentLocked walks the dependents relation with a visited set so a
// graph that incorrectly contains a cycle cannot recurse forever.
func (g *dependencyGraph) isDependentLocked(key, candidate string, seen map[string]struct{}) bool {
	if _, visited := seen[key]; visited {
		return false
	}

	canonical := g.canon(key)

	dependents, ok := g.dependents[canonical]
	if !ok {
		return false
	}

	if _, direct := dependents[candidate]; direct {
		return true
	}

	for transitive := range dependents {
		if seen == nil {
			seen = make(map[string]struct{})
		}

		seen[key] = struct{}{}

		if g.isDependentLocked(transitive, candidate, seen) {
			return true
		}
	}

	return false
}

// dependentsOf returns the keys registered as depending on key.
func (g *dependencyGraph) dependentsOf(key string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return setToSlice(g.dependents[key])
}

// dependenciesOf returns the keys that key depends on.
func (g *dependencyGraph) dependenciesOf(key string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return setToSlice(g.dependencies[key])
}

// removeDependents detaches and returns the dependents set for key.
func (g *dependencyGraph) removeDependents(key string) map[string]struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	dependents := g.dependents[key]
	delete(g.dependents, key)

	return dependents
}

// removeContained detaches and returns the contained-key set for key.
func (g *dependencyGraph) removeContained(key string) map[string]struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	inner := g.contained[key]
	delete(g.contained, key)

	return inner
}

// scrub removes key from every other key's dependents set and deletes its
// own dependencies entry, so no dangling edges survive a destroy.
func (g *dependencyGraph) scrub(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for owner, dependents := range g.dependents {
		delete(dependents, key)

		if len(dependents) == 0 {
			delete(g.dependents, owner)
		}
	}

	delete(g.dependencies, key)
}

// clear drops every edge in the graph.
func (g *dependencyGraph) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.contained = make(map[string]map[string]struct{})
	g.dependents = make(map[string]map[string]struct{})
	g.dependencies = make(map[string]map[string]struct{})
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	return keys
}
