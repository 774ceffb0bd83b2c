package core

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// Verifier checks a token's signature against key and its claims against
// opts, returning the verified claims.
type Verifier interface {
	Verify(ctx context.Context, token string, key any, opts VerifyOptions) (Claims, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string, key any, opts VerifyOptions) (Claims, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token string, key any, opts VerifyOptions) (Claims, error) {
	return f(ctx, token, key, opts)
}

// NewJWXVerifier returns the default Verifier, built on lestrrat-go/jwx.
func NewJWXVerifier() Verifier {
	return jwxVerifier{}
}

type jwxVerifier struct{}

func (jwxVerifier) Verify(_ context.Context, token string, key any, opts VerifyOptions) (Claims, error) {
	msg, err := jws.Parse([]byte(token), jws.WithCompact())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one signature", ErrTokenMalformed)
	}
	headers := sigs[0].ProtectedHeaders()

	alg := headers.Algorithm()
	if !slices.Contains(AllowedAlgorithms(key, opts), alg.String()) {
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmNotAllowed, alg)
	}

	verificationKey, err := SelectKey(key, headers.KeyID())
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(token), jws.WithKey(alg, verificationKey), jws.WithCompact())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrTokenMalformed)
	}

	if err := ValidateClaims(claims, opts); err != nil {
		return nil, err
	}

	return claims, nil
}

// SelectKey picks the key for kid out of a jwk.Set; other keys are returned as-is.
func SelectKey(key any, kid string) (any, error) {
	set, ok := key.(jwk.Set)
	if !ok {
		return key, nil
	}

	if kid != "" {
		if k, found := set.LookupKeyID(kid); found {
			return k, nil
		}
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}

	if set.Len() == 1 {
		k, _ := set.Key(0)
		return k, nil
	}
	return nil, fmt.Errorf("%w: token has no kid and the key set holds %d keys", ErrKeyNotFound, set.Len())
}
