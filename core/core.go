package core

import (
	"context"
	"errors"
	"time"
)

// Logger defines an optional logging interface for the core pipeline.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Middleware authenticates one request. It returns the verified claims, or
// nil claims and a nil error when the request is let through unauthenticated
// (CORS preflight, optional credentials).
type Middleware func(ctx context.Context, r Request) (Claims, error)

// Core is the verification pipeline for one action.
type Core struct {
	config   Config
	verifier Verifier
	logger   Logger
}

// Config returns the configuration the Core was built with, defaults applied.
func (c *Core) Config() Config {
	return c.config
}

// RequestProperty is where adapters store verified claims.
func (c *Core) RequestProperty() string {
	return c.config.RequestProperty
}

// Middleware returns c.Check as a Middleware.
func (c *Core) Middleware() Middleware {
	return c.Check
}

// Check runs the pipeline for r:
//   - a CORS preflight asking for the authorization header passes with no claims;
//   - the token is extracted, decoded without verification, and handed with
//     the request to the secret resolver;
//   - the token is verified against the resolved key and VerifyOptions.
//
// Every failure is returned as an *UnauthorizedError wrapping its cause.
func (c *Core) Check(ctx context.Context, r Request) (Claims, error) {
	if IsCORSPreflight(r) {
		c.debug("skipping JWT verification for CORS preflight request")
		return nil, nil
	}

	token, err := c.config.GetToken(r)
	if err != nil {
		if c.config.CredentialsOptional && errors.Is(err, ErrAuthorizationHeaderMissing) {
			c.debug("no authorization header, continuing without claims (credentials optional)")
			return nil, nil
		}
		c.warn("failed to extract token from request", "error", err)
		return nil, c.unauthorized(extractionCode(err), "could not extract token", err)
	}
	if token == "" {
		if c.config.CredentialsOptional {
			c.debug("no token provided, continuing without claims (credentials optional)")
			return nil, nil
		}
		c.warn("no token provided and credentials are required")
		return nil, c.unauthorized(ErrorCodeTokenMissing, "could not extract token", ErrTokenMissing)
	}

	// A token that does not decode still reaches the resolver, with a nil
	// header and payload; verification rejects it afterwards.
	decoded, err := Decode(token)
	if err != nil {
		c.debug("token could not be decoded", "error", err)
	}

	key, err := c.config.Secret.Resolve(ctx, r, decoded)
	if err != nil {
		c.warn("failed to resolve verification secret", "error", err, "kind", c.config.Secret.Kind().String())
		return nil, c.unauthorized(ErrorCodeSecretResolution, "could not resolve secret", err)
	}

	start := time.Now()
	claims, err := c.verifier.Verify(ctx, token, key, c.config.VerifyOptions)
	duration := time.Since(start)
	if err != nil {
		c.warn("token verification failed", "error", err, "duration", duration)
		return nil, c.unauthorized(CodeOf(err), "jwt verification failed", err)
	}

	c.debug("token verified", "duration", duration)
	return claims, nil
}

func extractionCode(err error) string {
	if errors.Is(err, ErrAuthorizationHeaderMissing) || errors.Is(err, ErrTokenMissing) {
		return ErrorCodeTokenMissing
	}
	return ErrorCodeExtractionFailed
}

func (c *Core) unauthorized(code, message string, cause error) error {
	var unauthorized *UnauthorizedError
	if errors.As(cause, &unauthorized) {
		return unauthorized
	}
	return NewUnauthorizedError(code, message, cause)
}

func (c *Core) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Core) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
