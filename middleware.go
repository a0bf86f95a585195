package keel

import "context"

// Middleware provides hooks for intercepting registry operations.
// Middleware can be used for logging, metrics, security, testing, etc.
type Middleware interface {
	// BeforeCreate is called before a factory runs for a key.
	// Return error to abort creation.
	BeforeCreate(ctx context.Context, key string) error

	// AfterCreate is called after a creation attempt for a key.
	// Called even if creation failed (instance and err may both be set).
	AfterCreate(ctx context.Context, key string, instance any, err error) error

	// BeforeDestroy is called before a key is destroyed.
	// Errors are logged; destruction proceeds regardless.
	BeforeDestroy(ctx context.Context, key string) error

	// AfterDestroy is called after a key has been destroyed.
	// Errors are logged.
	AfterDestroy(ctx context.Context, key string) error
}

// middlewareChain manages multiple middleware.
type middlewareChain struct {
	middleware []Middleware
}

// newMiddlewareChain creates a new middleware chain.
func newMiddlewareChain() *middlewareChain {
	return &middlewareChain{
		middleware: make([]Middleware, 0),
	}
}

// add appends middleware to the chain.
func (m *middlewareChain) add(middleware Middleware) {
	m.middleware = append(m.middleware, middleware)
}

// beforeCreate calls BeforeCreate on all middleware.
func (m *middlewareChain) beforeCreate(ctx context.Context, key string) error {
	for _, mw := range m.middleware {
		if err := mw.BeforeCreate(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// afterCreate calls AfterCreate on all middleware.
func (m *middlewareChain) afterCreate(ctx context.Context, key string, instance any, err error) error {
	for _, mw := range m.middleware {
		if mwErr := mw.AfterCreate(ctx, key, instance, err); mwErr != nil {
			return mwErr
		}
	}

	return nil
}

// beforeDestroy calls BeforeDestroy on all middleware, collecting the first error.
func (m *middlewareChain) beforeDestroy(ctx context.Context, key string) error {
	for _, mw := range m.middleware {
		if err := mw.BeforeDestroy(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// afterDestroy calls AfterDestroy on all middleware, collecting the first error.
func (m *middlewareChain) afterDestroy(ctx context.Context, key string) error {
	for _, mw := range m.middleware {
		if err := mw.AfterDestroy(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// FuncMiddleware adapts plain functions to the Middleware interface.
// Nil functions are treated as no-ops.
type FuncMiddleware struct {
	BeforeCreateFunc  func(ctx context.Context, key string) error
	AfterCreateFunc   func(ctx context.Context, key string, instance any, err error) error
	BeforeDestroyFunc func(ctx context.Context, key string) error
	AfterDestroyFunc  func(ctx context.Context, key string) error
}

// BeforeCreate implements Middleware.
func (f *FuncMiddleware) BeforeCreate(ctx context.Context, key string) error {
	if f.BeforeCreateFunc != nil {
		return f.BeforeCreateFunc(ctx, key)
	}

	return nil
}

// AfterCreate implements Middleware.
func (f *FuncMiddleware) AfterCreate(ctx context.Context, key string, instance any, err error) error {
	if f.AfterCreateFunc != nil {
		return f.AfterCreateFunc(ctx, key, instance, err)
	}

	return nil
}

// BeforeDestroy implements Middleware.
func (f *FuncMiddleware) BeforeDestroy(ctx context.Context, key string) error {
	if f.BeforeDestroyFunc != nil {
		return f.BeforeDestroyFunc(ctx, key)
	}

	return nil
}

// AfterDestroy implements Middleware.
func (f *FuncMiddleware) AfterDestroy(ctx context.Context, key string) error {
	if f.AfterDestroyFunc != nil {
		return f.AfterDestroyFunc(ctx, key)
	}

	return nil
}
