// Package jwtgo implements core.Verifier on top of github.com/golang-jwt/jwt/v5.
//
// It accepts the same keys as the default verifier: []byte shared secrets,
// crypto public (or private) keys, a single jwk.Key, or a jwk.Set from which
// the key is selected by the token's kid header.
//
//	mw, err := jwtmiddleware.New(
//	    jwtmiddleware.WithConfig(cfg),
//	    jwtmiddleware.WithVerifier(jwtgo.New()),
//	)
package jwtgo

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/denali-js/go-jwt-middleware/core"
)

// ClaimsValidator runs after the registered claims have been validated.
// Returning an error rejects the token as invalid_claims.
type ClaimsValidator func(ctx context.Context, claims core.Claims) error

// Option is how options for the verifier are setup.
type Option func(*verifier)

// WithClaimsValidator sets up a function for custom claims checks, e.g.
// required scopes or tenant membership.
func WithClaimsValidator(f ClaimsValidator) Option {
	return func(v *verifier) {
		v.validate = f
	}
}

// New returns a core.Verifier backed by golang-jwt.
func New(opts ...Option) core.Verifier {
	v := &verifier{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type verifier struct {
	validate ClaimsValidator
}

// Verify checks the signature of token with key and validates its claims
// against opts.
func (v *verifier) Verify(ctx context.Context, token string, key any, opts core.VerifyOptions) (core.Claims, error) {
	allowed := core.AllowedAlgorithms(key, opts)

	// Errors from the keyfunc are kept as-is; the parser would otherwise
	// fold them into ErrTokenUnverifiable.
	var keyErr error
	keyFunc := func(t *jwt.Token) (any, error) {
		alg := t.Method.Alg()
		if !slices.Contains(allowed, alg) {
			keyErr = fmt.Errorf("%w: %s", core.ErrAlgorithmNotAllowed, alg)
			return nil, keyErr
		}

		kid, _ := t.Header["kid"].(string)
		selected, err := core.SelectKey(key, kid)
		if err != nil {
			keyErr = err
			return nil, err
		}

		raw, err := rawKey(selected)
		if err != nil {
			keyErr = err
			return nil, err
		}
		return raw, nil
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(token, claims, keyFunc); err != nil {
		return nil, mapError(err, keyErr)
	}

	verified := core.Claims(claims)
	if err := core.ValidateClaims(verified, opts); err != nil {
		return nil, err
	}

	if v.validate != nil {
		if err := v.validate(ctx, verified); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidClaims, err)
		}
	}

	return verified, nil
}

func mapError(err, keyErr error) error {
	switch {
	case keyErr != nil:
		return keyErr
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", core.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return fmt.Errorf("%w: %w", core.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", core.ErrAlgorithmNotAllowed, err)
	default:
		return fmt.Errorf("%w: %w", core.ErrInvalidSignature, err)
	}
}

// rawKey converts key into the form golang-jwt's signing methods expect.
func rawKey(key any) (any, error) {
	if k, ok := key.(jwk.Key); ok {
		var raw any
		if err := k.Raw(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrKeyNotFound, err)
		}
		key = raw
	}

	switch k := key.(type) {
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	case *ecdsa.PrivateKey:
		return &k.PublicKey, nil
	case ed25519.PrivateKey:
		return k.Public(), nil
	default:
		return key, nil
	}
}
