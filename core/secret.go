package core

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// SecretKind tells how a Secret produces the verification key.
type SecretKind int

const (
	// SecretNone is the zero Secret; Config validation rejects it.
	SecretNone SecretKind = iota
	// SecretStatic is a fixed key.
	SecretStatic
	// SecretSimple is resolved per token from the request and payload.
	SecretSimple
	// SecretWithHeader is resolved per token from the request, header and payload.
	SecretWithHeader
)

func (k SecretKind) String() string {
	switch k {
	case SecretStatic:
		return "static"
	case SecretSimple:
		return "simple"
	case SecretWithHeader:
		return "with-header"
	default:
		return "none"
	}
}

// SimpleResolver looks up the verification key from the unverified payload.
// payload is nil when the token could not be decoded.
type SimpleResolver func(ctx context.Context, r Request, payload any) (any, error)

// HeaderResolver looks up the verification key from the unverified header
// and payload, typically by the "kid" header. header and payload are nil when
// the token could not be decoded.
type HeaderResolver func(ctx context.Context, r Request, header map[string]any, payload any) (any, error)

// Secret is the source of the key a token is verified against. Build one with
// StaticSecret, StaticKey, ResolveWith or ResolveWithHeader.
//
// Resolvers run before the signature is checked. Whatever they read from the
// token is attacker-controlled and may only be used to choose a key.
type Secret struct {
	kind       SecretKind
	static     any
	simple     SimpleResolver
	withHeader HeaderResolver
}

// StaticSecret is a shared secret, used as its byte form. PEM encoded public
// keys are accepted too.
func StaticSecret(secret string) Secret {
	return Secret{kind: SecretStatic, static: secret}
}

// StaticKey is a fixed key: []byte, a PEM string, a crypto public key,
// a jwk.Key or a jwk.Set.
func StaticKey(key any) Secret {
	return Secret{kind: SecretStatic, static: key}
}

// ResolveWith resolves the key per token from the request and payload.
func ResolveWith(resolver SimpleResolver) Secret {
	return Secret{kind: SecretSimple, simple: resolver}
}

// ResolveWithHeader resolves the key per token from the request, header and payload.
func ResolveWithHeader(resolver HeaderResolver) Secret {
	return Secret{kind: SecretWithHeader, withHeader: resolver}
}

// Kind reports how the secret is resolved.
func (s Secret) Kind() SecretKind {
	return s.kind
}

// IsZero reports whether no secret was configured.
func (s Secret) IsZero() bool {
	switch s.kind {
	case SecretStatic:
		return s.static == nil
	case SecretSimple:
		return s.simple == nil
	case SecretWithHeader:
		return s.withHeader == nil
	default:
		return true
	}
}

// Resolve returns the key for the token described by decoded, which may be nil.
func (s Secret) Resolve(ctx context.Context, r Request, decoded *DecodedToken) (any, error) {
	var (
		header  map[string]any
		payload any
	)
	if decoded.Structured() {
		header = decoded.Header
		payload = decoded.Payload
	}

	var (
		key any
		err error
	)
	switch s.kind {
	case SecretStatic:
		key = s.static
	case SecretSimple:
		key, err = s.simple(ctx, r, payload)
	case SecretWithHeader:
		key, err = s.withHeader(ctx, r, header, payload)
	default:
		return nil, configError("Secret", "secret is required")
	}
	if err != nil {
		return nil, err
	}

	return NormalizeKey(key)
}

// NormalizeKey converts a resolved secret into a key a Verifier accepts:
// strings become bytes and PEM data becomes a jwk.Key.
func NormalizeKey(key any) (any, error) {
	switch k := key.(type) {
	case nil:
		return nil, ErrSecretUnavailable
	case string:
		return normalizeBytes([]byte(k))
	case []byte:
		return normalizeBytes(k)
	default:
		return key, nil
	}
}

var pemPrefix = []byte("-----BEGIN ")

func normalizeBytes(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, ErrSecretUnavailable
	}
	if !bytes.HasPrefix(bytes.TrimSpace(b), pemPrefix) {
		return b, nil
	}

	key, err := jwk.ParseKey(b, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("could not parse PEM key: %w", err)
	}
	return key, nil
}
