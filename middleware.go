package jwtmiddleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/denali-js/go-jwt-middleware/core"
	"github.com/denali-js/go-jwt-middleware/memo"
)

// JWTMiddleware authenticates requests against one core.Config.
type JWTMiddleware struct {
	config              *core.Config
	loader              ConfigLoader
	verifier            core.Verifier
	errorHandler        ErrorHandler
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	tracer              oteltrace.Tracer
	metrics             *Metrics

	cache    *memo.Cache
	pipeline *memo.Wrapper[*core.Core]
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from JWT validation.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new JWTMiddleware instance with the supplied options.
// All parameters are passed via options (pure options pattern).
//
// With WithConfig the configuration is checked here and a
// *core.ConfigurationError is returned for a bad one. With WithConfigLoader
// the configuration is loaded and checked on the first request.
//
// Example:
//
//	middleware, err := jwtmiddleware.New(
//	    jwtmiddleware.WithConfig(core.Config{Secret: core.StaticSecret("123")}),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	http.Handle("/api", middleware.CheckJWT(handler))
func New(opts ...Option) (*JWTMiddleware, error) {
	m := &JWTMiddleware{}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", err)
	}

	m.applyDefaults()

	factory := m.loadCore
	if m.config != nil {
		c, err := m.buildCore(*m.config)
		if err != nil {
			return nil, err
		}
		factory = func(context.Context) (*core.Core, error) { return c, nil }
	}
	m.pipeline = memo.Wrap(factory)

	return m, nil
}

// validate ensures all required fields are set
func (m *JWTMiddleware) validate() error {
	switch {
	case m.config == nil && m.loader == nil:
		return ErrConfigMissing
	case m.config != nil && m.loader != nil:
		return ErrConfigConflict
	}
	return nil
}

// applyDefaults sets default values for optional fields
func (m *JWTMiddleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.cache == nil {
		m.cache = memo.NewCache()
	}
}

func (m *JWTMiddleware) buildCore(cfg core.Config) (*core.Core, error) {
	var opts []core.Option
	if m.verifier != nil {
		opts = append(opts, core.WithVerifier(m.verifier))
	}
	if m.logger != nil {
		opts = append(opts, core.WithLogger(m.logger))
	}
	return core.New(cfg, opts...)
}

func (m *JWTMiddleware) loadCore(ctx context.Context) (*core.Core, error) {
	cfg, err := m.loader(ctx)
	if err != nil {
		if errors.Is(err, core.ErrInvalidConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: loading configuration: %w", core.ErrInvalidConfiguration, err)
	}
	return m.buildCore(cfg)
}

// Check authenticates req. On success it returns ctx carrying the claims
// under the configured request property; claims are nil for requests that
// were let through without credentials. It is the entry point shared by the
// HTTP, gin, echo and gRPC adapters.
func (m *JWTMiddleware) Check(ctx context.Context, req core.Request) (context.Context, core.Claims, error) {
	start := time.Now()
	ctx, span := startSpan(ctx, m.tracer)

	result, code := ResultSuccess, ""
	defer func() {
		m.metrics.Observe(result, code, time.Since(start))
	}()

	c, err := m.pipeline.Get(ctx, m.cache)
	if err != nil {
		result = ResultError
		if m.logger != nil {
			m.logger.Error("failed to build JWT verification pipeline", "error", err)
		}
		finishSpan(span, m.tracer != nil, result, code, err)
		return ctx, nil, err
	}

	claims, err := c.Check(ctx, req)
	switch {
	case err != nil:
		result, code = ResultFailure, core.CodeOf(err)
	case claims == nil:
		result = ResultSkipped
	}
	finishSpan(span, m.tracer != nil, result, code, err)
	if err != nil {
		return ctx, nil, err
	}
	if claims == nil {
		return ctx, nil, nil
	}

	return core.SetClaims(ctx, c.RequestProperty(), claims), claims, nil
}

// Authenticate runs the pipeline for r and returns r carrying the verified
// claims in its context. The returned request is r itself when no claims
// were attached.
func (m *JWTMiddleware) Authenticate(r *http.Request) (*http.Request, error) {
	ctx, claims, err := m.Check(r.Context(), core.HTTPRequest(r))
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return r, nil
	}
	return r.WithContext(ctx), nil
}

// CheckJWT is the main JWTMiddleware function which performs the main logic. It
// is passed a http.Handler which will be called if the JWT passes validation.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If there's an exclusion handler and the URL matches, skip JWT validation
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping JWT validation for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.metrics.Observe(ResultSkipped, "", 0)
			next.ServeHTTP(w, r)
			return
		}

		authenticated, err := m.Authenticate(r)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("JWT validation failed",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, err)
			return
		}

		next.ServeHTTP(w, authenticated)
	})
}

// RequestProperty reports the property claims are stored under. It is only
// known once the configuration has been loaded, so it may run the
// configuration loader.
func (m *JWTMiddleware) RequestProperty(ctx context.Context) (string, error) {
	c, err := m.pipeline.Get(ctx, m.cache)
	if err != nil {
		return "", err
	}
	return c.RequestProperty(), nil
}
