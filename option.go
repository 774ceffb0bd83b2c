package jwtmiddleware

import (
	"context"
	"errors"
	"net/http"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/denali-js/go-jwt-middleware/core"
	"github.com/denali-js/go-jwt-middleware/memo"
)

// Option configures the JWTMiddleware.
// Returns error for validation failures.
type Option func(*JWTMiddleware) error

// ConfigLoader produces the configuration on first use. It runs at most
// once per middleware after it succeeds.
type ConfigLoader func(ctx context.Context) (core.Config, error)

// WithConfig sets the configuration. It is validated by New.
//
// Example:
//
//	middleware, err := jwtmiddleware.New(
//	    jwtmiddleware.WithConfig(core.Config{
//	        Secret: core.StaticSecret(os.Getenv("JWT_SECRET")),
//	    }),
//	)
func WithConfig(cfg core.Config) Option {
	return func(m *JWTMiddleware) error {
		m.config = &cfg
		return nil
	}
}

// WithConfigLoader defers building the configuration to the first request.
// Loader errors are reported to the ErrorHandler as configuration errors.
func WithConfigLoader(loader ConfigLoader) Option {
	return func(m *JWTMiddleware) error {
		if loader == nil {
			return ErrConfigLoaderNil
		}
		m.loader = loader
		return nil
	}
}

// WithVerifier replaces the default jwx based verifier, for example with
// the golang-jwt backend in verifier/jwtgo.
func WithVerifier(v core.Verifier) Option {
	return func(m *JWTMiddleware) error {
		if v == nil {
			return ErrVerifierNil
		}
		m.verifier = v
		return nil
	}
}

// WithErrorHandler sets the handler called when errors occur during JWT validation.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *JWTMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithExclusionUrls configures URL patterns to exclude from JWT validation.
// URLs can be full URLs or just paths.
func WithExclusionUrls(exclusions []string) Option {
	return func(m *JWTMiddleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithLogger sets an optional logger for the middleware.
// The logger will be used throughout the validation flow in both middleware and core.
//
// The logger interface is compatible with log/slog.Logger; NewLogrusLogger
// and NewZapLogger adapt logrus and zap.
func WithLogger(logger Logger) Option {
	return func(m *JWTMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithTracer opens an OpenTelemetry span around every authentication.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(m *JWTMiddleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// WithMetrics records every authentication in m.
func WithMetrics(metrics *Metrics) Option {
	return func(m *JWTMiddleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithCache sets the cache the verification pipeline is memoized in.
// By default every middleware owns a private cache.
func WithCache(cache *memo.Cache) Option {
	return func(m *JWTMiddleware) error {
		if cache == nil {
			return ErrCacheNil
		}
		m.cache = cache
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrConfigMissing      = errors.New("a configuration is required (use WithConfig or WithConfigLoader)")
	ErrConfigConflict     = errors.New("WithConfig and WithConfigLoader are mutually exclusive")
	ErrConfigLoaderNil    = errors.New("config loader cannot be nil")
	ErrVerifierNil        = errors.New("verifier cannot be nil")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrExclusionUrlsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrTracerNil          = errors.New("tracer cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
	ErrCacheNil           = errors.New("cache cannot be nil")
)
