package jwtecho

import (
	"errors"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
)

// Option is a function that configures the middleware
type Option func(*echoMiddlewareConfig) error

// WithMiddlewareOptions passes options through to jwtmiddleware.New.
func WithMiddlewareOptions(opts ...jwtmiddleware.Option) Option {
	return func(cfg *echoMiddlewareConfig) error {
		cfg.middlewareOpts = append(cfg.middlewareOpts, opts...)
		return nil
	}
}

// WithErrorHandler sets a custom error handler
func WithErrorHandler(handler ErrorHandler) Option {
	return func(cfg *echoMiddlewareConfig) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		cfg.errorHandler = handler
		return nil
	}
}
