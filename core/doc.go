/*
Package core provides the framework-agnostic JWT verification pipeline.

The package is the inner half of a Core-Adapter split: it knows nothing about
net/http, gin, echo or gRPC. Adapters translate their request into a
core.Request, call Core.Check and translate the result back.

	┌─────────────────────────────────────────────┐
	│   Adapters (HTTP, gin, echo, gRPC)          │
	│   request → core.Request, error → response  │
	└──────────────────────┬──────────────────────┘
	                       │
	┌──────────────────────▼──────────────────────┐
	│   Core.Check                                │
	│   preflight → extract → decode → resolve    │
	│   → verify                                  │
	└─────────────────────────────────────────────┘

# Basic Usage

	c, err := core.New(core.Config{
	    Secret: core.StaticSecret("shared-secret"),
	})
	if err != nil {
	    log.Fatal(err) // *core.ConfigurationError
	}

	claims, err := c.Check(ctx, core.HTTPRequest(r))
	if errors.Is(err, core.ErrUnauthorized) {
	    // respond 401
	}

Check returns (nil, nil) for a CORS preflight request that announces an
authorization header, and for requests without credentials when
Config.CredentialsOptional is set.

# Secrets

A Secret is one of three kinds:

  - StaticSecret / StaticKey: a fixed key. Strings are used as bytes, PEM
    data is parsed into a jwk.Key, jwk.Set picks the key by "kid".
  - ResolveWith: called with the request and the decoded payload.
  - ResolveWithHeader: called with the request, the decoded header and the
    payload. This is the shape a JWKS lookup by "kid" needs.

# Security

Resolvers run before the signature has been checked. The header and payload
they receive are attacker-controlled and must only be used to pick a key,
never to decide whether the caller is trusted. When the token cannot be
decoded the resolver still runs, with a nil header and payload.

# Errors

Every per-request failure is an *UnauthorizedError carrying a code such as
"token_expired" and the underlying cause:

	var ue *core.UnauthorizedError
	if errors.As(err, &ue) {
	    log.Printf("rejected: %s", ue.Code)
	}

Misconfiguration is reported by New as *ConfigurationError and matches
ErrInvalidConfiguration.

# Claims in context

Adapters store claims with SetClaims under Config.RequestProperty ("jwt" by
default). Handlers read them back with GetClaims:

	claims, err := core.GetClaims[core.Claims](ctx, "jwt")
*/
package core
