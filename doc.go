/*
Package jwtmiddleware provides HTTP middleware for JWT authentication.

This package implements JWT authentication middleware for standard Go net/http
servers. It verifies bearer tokens, extracts claims, and makes them available
in the request context. The middleware follows the Core-Adapter pattern, with
this package serving as the HTTP transport adapter and the entry point the
gin, echo and gRPC adapters build on.

# Quick Start

	import (
	    jwtmiddleware "github.com/denali-js/go-jwt-middleware"
	    "github.com/denali-js/go-jwt-middleware/core"
	)

	func main() {
	    middleware, err := jwtmiddleware.New(
	        jwtmiddleware.WithConfig(core.Config{
	            Secret: core.StaticSecret(os.Getenv("JWT_SECRET")),
	            VerifyOptions: core.VerifyOptions{
	                Audience: []string{"my-api"},
	            },
	        }),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", middleware.CheckJWT(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Accessing Claims

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := jwtmiddleware.GetClaims[core.Claims](r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", claims.Subject())
	}

Claims stored under a custom core.Config.RequestProperty are read with
GetClaimsAt.

# Keys resolved per token

	provider, err := jwks.NewCachingProvider(jwks.WithIssuerURL(issuerURL))
	if err != nil {
	    log.Fatal(err)
	}

	middleware, err := jwtmiddleware.New(
	    jwtmiddleware.WithConfig(core.Config{
	        Secret: provider.Secret(),
	        VerifyOptions: core.VerifyOptions{
	            Issuer:   []string{issuerURL.String()},
	            Audience: []string{"my-api"},
	        },
	    }),
	)

# Lazy configuration

WithConfigLoader builds the configuration on the first request and reuses it
afterwards, even when many requests arrive at once:

	middleware, err := jwtmiddleware.New(
	    jwtmiddleware.WithConfigLoader(config.Loader(config.FromEnv)),
	)

A loader failure is not cached; the next request tries again.

# Errors

DefaultErrorHandler answers authentication failures with 401, a JSON
ErrorResponse and a WWW-Authenticate challenge. Configuration errors get a
500. Use WithErrorHandler to replace it.

# Observability

  - WithLogger takes any slog-compatible logger; NewLogrusLogger and
    NewZapLogger adapt logrus and zap.
  - WithMetrics records jwt_verifications_total and
    jwt_verification_duration_seconds.
  - WithTracer opens a span per request with auth.status and auth.code
    attributes.
*/
package jwtmiddleware
