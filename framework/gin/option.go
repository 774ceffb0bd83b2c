package jwtgin

import (
	"errors"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
)

// Option defines a functional option for configuring the middleware
type Option func(*config) error

// WithMiddlewareOptions passes options through to jwtmiddleware.New.
func WithMiddlewareOptions(opts ...jwtmiddleware.Option) Option {
	return func(cfg *config) error {
		cfg.middlewareOpts = append(cfg.middlewareOpts, opts...)
		return nil
	}
}

// WithErrorHandler sets a custom error handler for the middleware
func WithErrorHandler(handler ErrorHandler) Option {
	return func(cfg *config) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		cfg.errorHandler = handler
		return nil
	}
}
