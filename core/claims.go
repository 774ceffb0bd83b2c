package core

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
)

// maxNumericDate is 9999-12-31T23:59:59Z. NumericDate values beyond it
// (either sign) do not fit time.Time and are rejected.
const maxNumericDate = 253402300799

// Claims is the verified JSON payload of a token.
type Claims map[string]any

// Subject returns the "sub" claim.
func (c Claims) Subject() string {
	return c.stringClaim("sub")
}

// Issuer returns the "iss" claim.
func (c Claims) Issuer() string {
	return c.stringClaim("iss")
}

// ID returns the "jti" claim.
func (c Claims) ID() string {
	return c.stringClaim("jti")
}

// Audience returns the "aud" claim, which may be a string or a list.
func (c Claims) Audience() []string {
	switch aud := c["aud"].(type) {
	case string:
		return []string{aud}
	case []string:
		return aud
	case []any:
		out := make([]string, 0, len(aud))
		for _, v := range aud {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ExpiresAt returns the "exp" claim.
func (c Claims) ExpiresAt() (time.Time, bool) {
	return c.timeClaim("exp")
}

// NotBefore returns the "nbf" claim.
func (c Claims) NotBefore() (time.Time, bool) {
	return c.timeClaim("nbf")
}

// IssuedAt returns the "iat" claim.
func (c Claims) IssuedAt() (time.Time, bool) {
	return c.timeClaim("iat")
}

func (c Claims) stringClaim(name string) string {
	s, _ := c[name].(string)
	return s
}

func (c Claims) timeClaim(name string) (time.Time, bool) {
	var seconds float64
	switch v := c[name].(type) {
	case float64:
		seconds = v
	case int64:
		seconds = float64(v)
	case int:
		seconds = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		seconds = f
	default:
		return time.Time{}, false
	}

	if math.IsNaN(seconds) || math.Abs(seconds) > maxNumericDate {
		return time.Time{}, false
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)), true
}

// ValidateClaims checks the registered claims against opts. Signature
// verification is the caller's job.
func ValidateClaims(claims Claims, opts VerifyOptions) error {
	now := opts.now()
	leeway := opts.ClockTolerance

	for _, name := range []string{"exp", "nbf", "iat"} {
		if _, present := claims[name]; present {
			if _, ok := claims.timeClaim(name); !ok {
				return fmt.Errorf("%w: %s must be a number within the NumericDate range", ErrInvalidClaims, name)
			}
		}
	}

	if nbf, ok := claims.NotBefore(); ok && !opts.IgnoreNotBefore && now.Add(leeway).Before(nbf) {
		return fmt.Errorf("%w: active at %s", ErrTokenNotYetValid, nbf.UTC().Format(time.RFC3339))
	}

	if exp, ok := claims.ExpiresAt(); ok && !opts.IgnoreExpiration && !now.Add(-leeway).Before(exp) {
		return fmt.Errorf("%w: expired at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}

	iat, hasIAT := claims.IssuedAt()
	if hasIAT && now.Add(leeway).Before(iat) {
		return ErrTokenIssuedInFuture
	}

	if opts.MaxAge > 0 {
		if !hasIAT {
			return fmt.Errorf("%w: iat required when maxAge is specified", ErrInvalidClaims)
		}
		if now.Add(-leeway).After(iat.Add(opts.MaxAge)) {
			return fmt.Errorf("%w: issued at %s", ErrTokenTooOld, iat.UTC().Format(time.RFC3339))
		}
	}

	if len(opts.Audience) > 0 {
		aud := claims.Audience()
		if !slices.ContainsFunc(opts.Audience, func(want string) bool { return slices.Contains(aud, want) }) {
			return fmt.Errorf("%w: expected one of %v", ErrInvalidAudience, opts.Audience)
		}
	}

	if len(opts.Issuer) > 0 && !slices.Contains(opts.Issuer, claims.Issuer()) {
		return fmt.Errorf("%w: expected one of %v", ErrInvalidIssuer, opts.Issuer)
	}

	if opts.Subject != "" && claims.Subject() != opts.Subject {
		return fmt.Errorf("%w: expected %s", ErrInvalidSubject, opts.Subject)
	}

	if opts.JWTID != "" && claims.ID() != opts.JWTID {
		return fmt.Errorf("%w: expected %s", ErrInvalidJWTID, opts.JWTID)
	}

	return nil
}
