package core

import (
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jws"
)

// DecodedToken is the unverified content of a compact JWS.
//
// Nothing in it is authentic. It exists so that a secret resolver can pick
// the key to verify with (by kid, iss, tenant and so on); it must never be
// used to make a trust decision.
type DecodedToken struct {
	// Header holds the protected header, nil when the token did not parse.
	Header map[string]any

	// Payload is a map[string]any for JSON object payloads, the raw string
	// for any other payload, and nil when the token did not parse.
	Payload any
}

// Structured reports whether the token parsed into header and payload.
func (d *DecodedToken) Structured() bool {
	return d != nil && d.Header != nil
}

// Decode parses token without verifying its signature.
func Decode(token string) (*DecodedToken, error) {
	msg, err := jws.Parse([]byte(token), jws.WithCompact())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: no signature", ErrTokenMalformed)
	}

	rawHeader, err := json.Marshal(sigs[0].ProtectedHeaders())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	header := map[string]any{}
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	return &DecodedToken{
		Header:  header,
		Payload: decodePayload(msg.Payload()),
	}, nil
}

func decodePayload(raw []byte) any {
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err == nil && object != nil {
		return object
	}
	return string(raw)
}
