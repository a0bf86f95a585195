package keel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAs_Success(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("svc", &serviceA{}))

	instance, ok := GetAs[*serviceA](r, "svc")
	assert.True(t, ok)
	assert.NotNil(t, instance)
}

func TestGetAs_Missing(t *testing.T) {
	r := New()

	_, ok := GetAs[*serviceA](r, "missing")
	assert.False(t, ok)
}

func TestGetAs_TypeMismatch(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("svc", "a string"))

	_, ok := GetAs[*serviceA](r, "svc")
	assert.False(t, ok)
}

func TestGetOrCreateAs_Success(t *testing.T) {
	r := New()

	instance, err := GetOrCreateAs(r, "svc", func() (*serviceA, error) {
		return &serviceA{}, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, instance)
}

func TestGetOrCreateAs_FactoryError(t *testing.T) {
	r := New()
	expectedErr := errors.New("boom")

	_, err := GetOrCreateAs(r, "svc", func() (*serviceA, error) {
		return nil, expectedErr
	})
	assert.ErrorIs(t, err, expectedErr)
}

func TestGetOrCreateAs_TypeMismatch(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("svc", "a string"))

	_, err := GetOrCreateAs(r, "svc", func() (*serviceA, error) {
		return &serviceA{}, nil
	})
	assert.Error(t, err)
}

func TestMust_Success(t *testing.T) {
	r := New()

	require.NoError(t, r.RegisterFinalized("svc", &serviceA{}))

	assert.NotPanics(t, func() {
		instance := Must[*serviceA](r, "svc")
		assert.NotNil(t, instance)
	})
}

func TestMust_PanicsOnMissing(t *testing.T) {
	r := New()

	assert.Panics(t, func() {
		Must[*serviceA](r, "missing")
	})
}
