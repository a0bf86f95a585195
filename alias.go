package keel

import "sync"

// aliasResolver maps registered aliases to canonical names and keeps the
// alias graph acyclic so canonicalization always terminates.
type aliasResolver struct {
	aliases         map[string]string // alias -> canonical name
	allowOverriding bool
	mu              sync.Mutex
}

// newAliasResolver creates an empty resolver. Overriding an alias with a
// new canonical name is allowed by default.
func newAliasResolver() *aliasResolver {
	return &aliasResolver{
		aliases:         make(map[string]string),
		allowOverriding: true,
	}
}

// register maps alias to canonical. A self-alias removes any existing entry;
// re-registering an identical mapping is a no-op.
func (a *aliasResolver) register(canonical, alias string) error {
	if canonical == "" {
		return ErrInvalidArgument("canonical name must not be empty")
	}

	if alias == "" {
		return ErrInvalidArgument("alias must not be empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if alias == canonical {
		// A name aliased to itself is meaningless.
		delete(a.aliases, alias)

		return nil
	}

	if registered, ok := a.aliases[alias]; ok {
		if registered == canonical {
			return nil
		}

		if !a.allowOverriding {
			return ErrAliasAlreadyRegistered(alias, canonical, registered)
		}
	}

	if a.hasAlias(alias, canonical) {
		return ErrCircularAlias(canonical, alias)
	}

	a.aliases[alias] = canonical

	return nil
}

// remove deletes a registered alias.
func (a *aliasResolver) remove(alias string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.aliases[alias]; !ok {
		return ErrAliasNotFound(alias)
	}

	delete(a.aliases, alias)

	return nil
}

// isAlias reports whether name is registered as an alias.
func (a *aliasResolver) isAlias(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.aliases[name]

	return ok
}

// aliasesOf returns every alias whose chain resolves to canonical.
func (a *aliasResolver) aliasesOf(canonical string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var result []string

	a.retrieveAliases(canonical, &result)

	return result
}

// retrieveAliases collects direct and transitive aliases for name.
func (a *aliasResolver) retrieveAliases(name string, result *[]string) {
	for alias, registered := range a.aliases {
		if registered == name {
			*result = append(*result, alias)
			a.retrieveAliases(alias, result)
		}
	}
}

// canonicalize follows alias edges until a name with no further mapping is
// reached. Terminates because registration keeps the alias graph acyclic.
func (a *aliasResolver) canonicalize(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	canonical := name
	for {
		resolved, ok := a.aliases[canonical]
		if !ok {
			return canonical
		}

		canonical = resolved
	}
}

// resolveAll applies transform to every alias and its canonical target,
// reconciling the post-transform state: a no-op alias is dropped, an alias
// now redundant with an existing identical mapping is dropped, a collision
// targeting a different canonical name fails, and everything else is
// re-inserted under the transformed names.
func (a *aliasResolver) resolveAll(transform func(string) string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make(map[string]string, len(a.aliases))
	for alias, registered := range a.aliases {
		snapshot[alias] = registered
	}

	for alias, registered := range snapshot {
		resolvedAlias := transform(alias)
		resolvedName := transform(registered)

		switch {
		case resolvedAlias == "" || resolvedName == "" || resolvedAlias == resolvedName:
			delete(a.aliases, alias)

		case resolvedAlias != alias:
			if existing, ok := a.aliases[resolvedAlias]; ok {
				if existing == resolvedName {
					// Pointing at an existing identical mapping: the
					// transformed alias is redundant.
					delete(a.aliases, alias)

					continue
				}

				return ErrResolutionConflict(resolvedAlias, alias, resolvedName, registered)
			}

			if a.hasAlias(resolvedAlias, resolvedName) {
				return ErrCircularAlias(resolvedName, resolvedAlias)
			}

			delete(a.aliases, alias)
			a.aliases[resolvedAlias] = resolvedName

		case registered != resolvedName:
			a.aliases[alias] = resolvedName
		}
	}

	return nil
}

// hasAlias reports whether alias directly or transitively resolves to name.
// Callers must hold the resolver lock.
func (a *aliasResolver) hasAlias(name, alias string) bool {
	registered, ok := a.aliases[alias]
	if !ok {
		return false
	}

	if registered == name {
		return true
	}

	return a.hasAlias(name, registered)
}
