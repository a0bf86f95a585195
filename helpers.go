package keel

import "fmt"

// GetAs returns the finalized instance for key with type safety.
// Reports false when the key is absent or holds a different type.
func GetAs[T any](r Registry, key string) (T, bool) {
	var zero T

	instance, ok := r.Get(key)
	if !ok {
		return zero, false
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, false
	}

	return typed, true
}

// GetOrCreateAs resolves or creates the instance for key with type safety.
func GetOrCreateAs[T any](r Registry, key string, factory func() (T, error)) (T, error) {
	var zero T

	instance, err := r.GetOrCreate(key, func() (any, error) {
		return factory()
	})
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("instance under key %s is not of type %T", key, zero)
	}

	return typed, nil
}

// Must returns the finalized instance for key or panics - use only during
// startup.
func Must[T any](r Registry, key string) T {
	instance, ok := GetAs[T](r, key)
	if !ok {
		panic(fmt.Sprintf("no instance of the expected type under key %s", key))
	}

	return instance
}
