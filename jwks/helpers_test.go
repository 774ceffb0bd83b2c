package jwks

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/stretchr/testify/require"

	"github.com/denali-js/go-jwt-middleware/core"
	"github.com/denali-js/go-jwt-middleware/internal/oidc"
)

// testIssuer is an OIDC issuer serving discovery and a one-key JWKS.
type testIssuer struct {
	server       *httptest.Server
	privateKey   jwk.Key
	cacheControl string

	discoveryRequests atomic.Int32
	jwksRequests      atomic.Int32
}

func newTestIssuer(t *testing.T, kid string) *testIssuer {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privateKey, err := jwk.FromRaw(rsaKey)
	require.NoError(t, err)
	require.NoError(t, privateKey.Set(jwk.KeyIDKey, kid))
	require.NoError(t, privateKey.Set(jwk.AlgorithmKey, jwa.RS256))

	publicKey, err := jwk.PublicKeyOf(privateKey)
	require.NoError(t, err)
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(publicKey))
	setJSON, err := json.Marshal(set)
	require.NoError(t, err)

	ti := &testIssuer{privateKey: privateKey}
	ti.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			ti.discoveryRequests.Add(1)
			_ = json.NewEncoder(w).Encode(oidc.WellKnownEndpoints{
				Issuer:  ti.server.URL,
				JWKSURI: ti.server.URL + "/.well-known/jwks.json",
			})
		case "/.well-known/jwks.json":
			ti.jwksRequests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			if ti.cacheControl != "" {
				w.Header().Set("Cache-Control", ti.cacheControl)
			}
			_, _ = w.Write(setJSON)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ti.server.Close)

	return ti
}

func (ti *testIssuer) url(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(ti.server.URL)
	require.NoError(t, err)
	return u
}

func (ti *testIssuer) jwksURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(ti.server.URL + "/.well-known/jwks.json")
	require.NoError(t, err)
	return u
}

// sign issues an RS256 token with the issuer's key; kid is taken from the key.
func (ti *testIssuer) sign(t *testing.T, claims map[string]any) string {
	t.Helper()

	if _, ok := claims["iss"]; !ok {
		claims["iss"] = ti.server.URL
	}
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	hdrs := jws.NewHeaders()
	require.NoError(t, hdrs.Set(jws.KeyIDKey, ti.privateKey.KeyID()))

	signed, err := jws.Sign(payload, jws.WithKey(jwa.RS256, ti.privateKey, jws.WithProtectedHeaders(hdrs)))
	require.NoError(t, err)
	return string(signed)
}

func bearer(token string) core.Request {
	return core.HeaderMap{
		RequestMethod: http.MethodGet,
		Headers:       map[string]string{"authorization": "Bearer " + token},
	}
}
