// Package jwtgin adapts the JWT middleware to gin.
package jwtgin

import (
	"errors"

	"github.com/gin-gonic/gin"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
	"github.com/denali-js/go-jwt-middleware/core"
)

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

// ErrorHandler writes the response for a rejected request. The middleware
// aborts the chain after it returns.
type ErrorHandler func(c *gin.Context, err error)

type config struct {
	middlewareOpts []jwtmiddleware.Option
	errorHandler   ErrorHandler
}

// New creates a gin middleware for JWT authentication. Verified claims are
// stored with c.Set under the configured request property ("jwt" by default)
// and on the request context.
//
// Example:
//
//	auth, err := jwtgin.New(jwtgin.WithMiddlewareOptions(
//	    jwtmiddleware.WithConfig(core.Config{Secret: core.StaticSecret("123")}),
//	))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	router.Use(auth)
func New(opts ...Option) (gin.HandlerFunc, error) {
	cfg := &config{errorHandler: DefaultErrorHandler}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	middleware, err := jwtmiddleware.New(cfg.middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx, claims, err := middleware.Check(c.Request.Context(), core.HTTPRequest(c.Request))
		if err != nil {
			cfg.errorHandler(c, err)
			c.Abort()
			return
		}

		if claims != nil {
			property, err := middleware.RequestProperty(ctx)
			if err != nil {
				cfg.errorHandler(c, err)
				c.Abort()
				return
			}
			c.Request = c.Request.WithContext(ctx)
			c.Set(property, claims)
		}

		c.Next()
	}, nil
}

// DefaultErrorHandler answers with the same status, body and challenge as
// jwtmiddleware.DefaultErrorHandler.
func DefaultErrorHandler(c *gin.Context, err error) {
	resp := jwtmiddleware.ResponseFor(err)
	if resp.Challenge != "" {
		c.Header("WWW-Authenticate", resp.Challenge)
	}
	c.AbortWithStatusJSON(resp.Status, resp.Body)
}

// GetClaims returns the claims stored under contextKey, or under "jwt" when
// contextKey is empty.
func GetClaims(c *gin.Context, contextKey string) (core.Claims, error) {
	if contextKey == "" {
		contextKey = core.DefaultRequestProperty
	}

	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	verified, ok := claims.(core.Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return verified, nil
}
