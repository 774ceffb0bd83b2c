// Package jwtecho adapts the JWT middleware to echo.
package jwtecho

import (
	"github.com/labstack/echo/v4"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
	"github.com/denali-js/go-jwt-middleware/core"
)

// ErrorHandler turns a rejection into the error returned from the
// middleware. The default returns an *echo.HTTPError.
type ErrorHandler func(c echo.Context, err error) error

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	middlewareOpts []jwtmiddleware.Option
	errorHandler   ErrorHandler
}

// New is a constructor for the echo middleware. Verified claims are stored
// with c.Set under the configured request property ("jwt" by default) and on
// the request context.
func New(opts ...Option) (echo.MiddlewareFunc, error) {
	cfg := &echoMiddlewareConfig{errorHandler: DefaultErrorHandler}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	middleware, err := jwtmiddleware.New(cfg.middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			ctx, claims, err := middleware.Check(r.Context(), core.HTTPRequest(r))
			if err != nil {
				return cfg.errorHandler(c, err)
			}

			if claims != nil {
				property, err := middleware.RequestProperty(ctx)
				if err != nil {
					return cfg.errorHandler(c, err)
				}
				c.SetRequest(r.WithContext(ctx))
				c.Set(property, claims)
			}

			return next(c)
		}
	}, nil
}

// DefaultErrorHandler maps err with jwtmiddleware.ResponseFor. The challenge
// header is set directly since echo's error handler only writes the body.
func DefaultErrorHandler(c echo.Context, err error) error {
	resp := jwtmiddleware.ResponseFor(err)
	if resp.Challenge != "" {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, resp.Challenge)
	}
	return echo.NewHTTPError(resp.Status, resp.Body).SetInternal(err)
}

// GetClaims extracts the JWT claims from the echo context. An empty
// contextKey means "jwt".
func GetClaims(c echo.Context, contextKey string) (core.Claims, bool) {
	if contextKey == "" {
		contextKey = core.DefaultRequestProperty
	}

	claims, ok := c.Get(contextKey).(core.Claims)
	return claims, ok
}
