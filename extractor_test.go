package jwtmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denali-js/go-jwt-middleware/core"
)

func TestCookieTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		cookie    *http.Cookie
		wantToken string
	}{
		{
			name:      "cookie present",
			cookie:    &http.Cookie{Name: "token", Value: "abc"},
			wantToken: "abc",
		},
		{
			name:   "other cookie",
			cookie: &http.Cookie{Name: "session", Value: "xyz"},
		},
		{
			name: "no cookie",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != nil {
				r.AddCookie(tc.cookie)
			}

			token, err := CookieTokenExtractor("token")(core.HTTPRequest(r))
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}

func TestParameterTokenExtractor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?access_token=abc", nil)

	token, err := ParameterTokenExtractor("access_token")(core.HTTPRequest(r))
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = ParameterTokenExtractor("access_token")(core.HeaderMap{})
	assert.ErrorIs(t, err, ErrNotHTTPRequest)
}

func TestMultiTokenExtractor(t *testing.T) {
	extractor := MultiTokenExtractor(
		AuthHeaderTokenExtractor,
		CookieTokenExtractor("token"),
		ParameterTokenExtractor("access_token"),
	)

	t.Run("first non-empty wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?access_token=from-query", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})

		token, err := extractor(core.HTTPRequest(r))
		require.NoError(t, err)
		assert.Equal(t, "from-cookie", token)
	})

	t.Run("header error stops the chain", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?access_token=from-query", nil)
		r.Header.Set("Authorization", "Basic abc")

		_, err := extractor(core.HTTPRequest(r))
		assert.ErrorIs(t, err, core.ErrAuthorizationScheme)
	})

	t.Run("nothing found", func(t *testing.T) {
		token, err := extractor(core.HTTPRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("used as the config extractor", func(t *testing.T) {
		m, err := New(WithConfig(core.Config{
			Secret:   core.StaticSecret("123"),
			GetToken: extractor,
		}))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/?access_token="+signedToken(t, "123", "query-user"), nil)
		authenticated, err := m.Authenticate(r)
		require.NoError(t, err)

		claims := MustGetClaims[core.Claims](authenticated.Context())
		assert.Equal(t, "query-user", claims.Subject())
	})
}
