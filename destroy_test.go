package keel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroy_RunsDisposalCallback(t *testing.T) {
	r := New()
	disposed := false

	require.NoError(t, r.RegisterFinalized("svc", "value"))
	r.RegisterDisposal("svc", func() error {
		disposed = true

		return nil
	})

	r.Destroy("svc")

	assert.True(t, disposed)
	assert.False(t, r.Contains("svc"))
}

func TestDestroy_DisposalRunsOnce(t *testing.T) {
	r := New()
	disposals := 0

	require.NoError(t, r.RegisterFinalized("svc", "value"))
	r.RegisterDisposal("svc", func() error {
		disposals++

		return nil
	})

	r.Destroy("svc")
	r.Destroy("svc")

	assert.Equal(t, 1, disposals)
}

func TestDestroy_DependentsFirst(t *testing.T) {
	r := New()

	var order []string

	for _, key := range []string{"db", "repo"} {
		key := key

		require.NoError(t, r.RegisterFinalized(key, key+"-value"))
		r.RegisterDisposal(key, func() error {
			order = append(order, key)

			return nil
		})
	}

	// repo depends on db: destroying db must destroy repo first.
	r.RegisterDependency("db", "repo")

	r.Destroy("db")

	assert.Equal(t, []string{"repo", "db"}, order)
	assert.False(t, r.Contains("db"))
	assert.False(t, r.Contains("repo"))
}

func TestDestroy_TransitiveDependents(t *testing.T) {
	r := New()

	var order []string

	for _, key := range []string{"db", "repo", "handler"} {
		key := key

		require.NoError(t, r.RegisterFinalized(key, key+"-value"))
		r.RegisterDisposal(key, func() error {
			order = append(order, key)

			return nil
		})
	}

	r.RegisterDependency("db", "repo")
	r.RegisterDependency("repo", "handler")

	r.Destroy("db")

	assert.Equal(t, []string{"handler", "repo", "db"}, order)
}

func TestDestroy_Containment(t *testing.T) {
	r := New()

	var order []string

	for _, key := range []string{"inner", "outer"} {
		key := key

		require.NoError(t, r.RegisterFinalized(key, key+"-value"))
		r.RegisterDisposal(key, func() error {
			order = append(order, key)

			return nil
		})
	}

	r.RegisterContainment("inner", "outer")

	r.Destroy("outer")

	// Both callbacks fire and the contained instance is gone with its outer.
	assert.ElementsMatch(t, []string{"outer", "inner"}, order)
	assert.False(t, r.Contains("outer"))
	assert.False(t, r.Contains("inner"))

	// No dangling edges remain.
	assert.Empty(t, r.DependentsOf("inner"))
	assert.Empty(t, r.DependenciesOf("outer"))
}

func TestDestroy_ScrubsEdges(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("db", "db-value"))
	require.NoError(t, r.RegisterFinalized("cache", "cache-value"))
	require.NoError(t, r.RegisterFinalized("repo", "repo-value"))

	r.RegisterDependency("db", "repo")
	r.RegisterDependency("cache", "repo")

	r.Destroy("repo")

	// repo is removed from every other key's dependents set.
	assert.Empty(t, r.DependentsOf("db"))
	assert.Empty(t, r.DependentsOf("cache"))
	assert.Empty(t, r.DependenciesOf("repo"))
}

func TestDestroy_DisposerErrorSwallowed(t *testing.T) {
	r := New()
	secondRan := false

	require.NoError(t, r.RegisterFinalized("bad", "bad-value"))
	require.NoError(t, r.RegisterFinalized("good", "good-value"))

	r.RegisterDisposal("bad", func() error {
		return errors.New("disposal failed")
	})
	r.RegisterDisposal("good", func() error {
		secondRan = true

		return nil
	})

	// Destruction runs to completion despite the failure.
	r.DestroyAll()

	assert.True(t, secondRan)
	assert.Zero(t, r.Count())
}

func TestDestroy_KeyCreatableAgain(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("svc", "first"))
	r.Destroy("svc")

	// A plain destroy does not enter the teardown phase.
	instance, err := r.GetOrCreate("svc", func() (any, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", instance)
}

func TestDestroy_ThroughAlias(t *testing.T) {
	r := New()
	disposed := false

	require.NoError(t, r.RegisterAlias("service", "svc"))
	require.NoError(t, r.RegisterFinalized("service", "value"))
	r.RegisterDisposal("service", func() error {
		disposed = true

		return nil
	})

	r.Destroy("svc")

	assert.True(t, disposed)
	assert.False(t, r.Contains("service"))
}

func TestDestroyAll_ReverseRegistrationOrder(t *testing.T) {
	r := New()

	var order []string

	for _, key := range []string{"a", "b", "c"} {
		key := key

		require.NoError(t, r.RegisterFinalized(key, key+"-value"))
		r.RegisterDisposal(key, func() error {
			order = append(order, key)

			return nil
		})
	}

	r.DestroyAll()

	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestDestroyAll_ClearsEverything(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("db", "db-value"))
	require.NoError(t, r.RegisterFinalized("repo", "repo-value"))
	r.RegisterDependency("db", "repo")

	r.DestroyAll()

	assert.Zero(t, r.Count())
	assert.Empty(t, r.Names())
	assert.False(t, r.Contains("db"))
	assert.Empty(t, r.DependentsOf("db"))
	assert.Empty(t, r.DependenciesOf("repo"))
}

func TestDestroyAll_RejectsFurtherCreation(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("svc", "value"))
	r.DestroyAll()

	_, err := r.GetOrCreate("other", func() (any, error) {
		return "value", nil
	})
	assert.ErrorIs(t, err, ErrCreationNotAllowed("other"))
}

func TestDestroyAll_RejectsCreationFromDisposer(t *testing.T) {
	r := New()

	var disposerErr error

	require.NoError(t, r.RegisterFinalized("svc", "value"))
	r.RegisterDisposal("svc", func() error {
		_, disposerErr = r.GetOrCreate("late", func() (any, error) {
			return "late-value", nil
		})

		return nil
	})

	r.DestroyAll()

	assert.ErrorIs(t, disposerErr, ErrCreationNotAllowed("late"))
}
