package core

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultRequestProperty is the name claims are stored under when
// Config.RequestProperty is empty.
const DefaultRequestProperty = "jwt"

// Config controls how requests are authenticated. It is supplied once per
// action and treated as immutable afterwards.
type Config struct {
	// Secret is the key source tokens are verified against. Required.
	Secret Secret

	// GetToken extracts the raw token. Default: BearerTokenExtractor.
	GetToken TokenExtractor

	// RequestProperty names where verified claims are stored on the
	// request. Default: "jwt".
	RequestProperty string

	// CredentialsOptional lets requests without an authorization header
	// through without claims instead of failing them.
	CredentialsOptional bool

	VerifyOptions
}

// VerifyOptions are the standard JWT verification parameters. They are
// handed unmodified to the Verifier.
type VerifyOptions struct {
	// Algorithms is the allow-list of signing algorithms. When empty it
	// defaults by key type: HS256/HS384/HS512 for shared secrets, the
	// matching asymmetric family otherwise. "none" is never allowed.
	Algorithms []string

	// Audience must intersect the token's "aud" claim when set.
	Audience []string

	// Issuer must contain the token's "iss" claim when set.
	Issuer []string

	// Subject must equal the token's "sub" claim when set.
	Subject string

	// JWTID must equal the token's "jti" claim when set.
	JWTID string

	// ClockTolerance is the leeway applied to exp, nbf and iat.
	ClockTolerance time.Duration

	// MaxAge rejects tokens whose iat is older than this when set.
	MaxAge time.Duration

	IgnoreExpiration bool
	IgnoreNotBefore  bool

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time
}

func (o VerifyOptions) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}

var (
	hmacAlgorithms  = []string{"HS256", "HS384", "HS512"}
	rsaAlgorithms   = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}
	ecdsaAlgorithms = []string{"ES256", "ES384", "ES512"}
	eddsaAlgorithms = []string{"EdDSA"}
)

var supportedAlgorithms = map[string]bool{
	"HS256": true, "HS384": true, "HS512": true,
	"RS256": true, "RS384": true, "RS512": true,
	"PS256": true, "PS384": true, "PS512": true,
	"ES256": true, "ES384": true, "ES512": true,
	"EdDSA": true,
}

// SupportedAlgorithm reports whether alg may appear in an allow-list.
func SupportedAlgorithm(alg string) bool {
	return supportedAlgorithms[alg]
}

// AllowedAlgorithms returns opts.Algorithms, or the default allow-list for key.
func AllowedAlgorithms(key any, opts VerifyOptions) []string {
	if len(opts.Algorithms) > 0 {
		return opts.Algorithms
	}
	return DefaultAlgorithms(key)
}

// DefaultAlgorithms returns the algorithms a key can verify.
func DefaultAlgorithms(key any) []string {
	switch k := key.(type) {
	case []byte:
		return hmacAlgorithms
	case *rsa.PublicKey, *rsa.PrivateKey:
		return rsaAlgorithms
	case *ecdsa.PublicKey, *ecdsa.PrivateKey:
		return ecdsaAlgorithms
	case ed25519.PublicKey, ed25519.PrivateKey:
		return eddsaAlgorithms
	case jwk.Key:
		switch k.KeyType() {
		case jwa.OctetSeq:
			return hmacAlgorithms
		case jwa.RSA:
			return rsaAlgorithms
		case jwa.EC:
			return ecdsaAlgorithms
		case jwa.OKP:
			return eddsaAlgorithms
		}
	case jwk.Set:
		return concat(rsaAlgorithms, ecdsaAlgorithms, eddsaAlgorithms)
	}
	return nil
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Validate checks the configuration preconditions. Violations are
// programmer errors and are reported as *ConfigurationError.
func (c Config) Validate() error {
	if c.Secret.IsZero() {
		return configError("Secret", "secret is required")
	}
	for _, alg := range c.Algorithms {
		if !SupportedAlgorithm(alg) {
			return configError("Algorithms", "unsupported algorithm "+alg)
		}
	}
	if c.ClockTolerance < 0 {
		return configError("ClockTolerance", "cannot be negative")
	}
	if c.MaxAge < 0 {
		return configError("MaxAge", "cannot be negative")
	}
	return nil
}

// withDefaults returns a copy of c with defaults applied.
func (c Config) withDefaults() Config {
	if c.GetToken == nil {
		c.GetToken = BearerTokenExtractor
	}
	if c.RequestProperty == "" {
		c.RequestProperty = DefaultRequestProperty
	}
	c.Algorithms = append([]string(nil), c.Algorithms...)
	c.Audience = append([]string(nil), c.Audience...)
	c.Issuer = append([]string(nil), c.Issuer...)
	return c
}
