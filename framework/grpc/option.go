package jwtgrpc

import (
	"errors"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
)

// Option configures the JWT interceptor.
type Option func(*Interceptor) error

// WithMiddlewareOptions passes options through to jwtmiddleware.New. A
// configuration (WithConfig or WithConfigLoader) is required.
func WithMiddlewareOptions(opts ...jwtmiddleware.Option) Option {
	return func(i *Interceptor) error {
		i.middlewareOpts = append(i.middlewareOpts, opts...)
		return nil
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods skips JWT validation for the given full method names
// (e.g. "/grpc.health.v1.Health/Check").
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor and the underlying
// middleware.
func WithLogger(logger jwtmiddleware.Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}
