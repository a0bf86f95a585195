package keel

import "go.uber.org/zap"

// Option configures a registry created by New.
type Option func(*registryImpl)

// WithLogger sets the logger used for creation and teardown diagnostics.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *registryImpl) {
		r.logger = logger
	}
}

// WithAliasOverriding controls whether registering an alias that already
// points at a different canonical name overrides the existing entry
// (the default) or fails with an ALREADY_REGISTERED error.
func WithAliasOverriding(allow bool) Option {
	return func(r *registryImpl) {
		r.aliases.allowOverriding = allow
	}
}
