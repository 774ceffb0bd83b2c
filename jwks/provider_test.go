package jwks

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denali-js/go-jwt-middleware/core"
)

func Test_CachingProvider(t *testing.T) {
	t.Run("It correctly fetches the JWKS after calling the discovery endpoint", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")

		provider, err := NewCachingProvider(WithIssuerURL(issuer.url(t)))
		require.NoError(t, err)

		set, err := provider.KeySet(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())

		key, ok := set.Key(0)
		require.True(t, ok)
		assert.Equal(t, "kid-1", key.KeyID())
		assert.EqualValues(t, 1, issuer.discoveryRequests.Load())
	})

	t.Run("It skips the discovery if a custom JWKS URI is provided", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")

		provider, err := NewCachingProvider(WithCustomJWKSURI(issuer.jwksURL(t)))
		require.NoError(t, err)

		_, err = provider.KeySet(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 0, issuer.discoveryRequests.Load())
		assert.EqualValues(t, 1, issuer.jwksRequests.Load())
	})

	t.Run("It only calls the API once when multiple requests come in", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")

		provider, err := NewCachingProvider(
			WithIssuerURL(issuer.url(t)),
			WithCacheTTL(5*time.Minute),
		)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = provider.KeySet(context.Background())
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, issuer.discoveryRequests.Load())
		assert.EqualValues(t, 1, issuer.jwksRequests.Load())
	})

	t.Run("It retries discovery after a failure", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")
		wrong, err := url.Parse(issuer.server.URL + "/nowhere")
		require.NoError(t, err)

		provider, err := NewCachingProvider(WithIssuerURL(wrong))
		require.NoError(t, err)

		_, err = provider.KeySet(context.Background())
		assert.ErrorContains(t, err, "failed to discover JWKS URI")

		provider.issuerURL = issuer.url(t)
		_, err = provider.KeySet(context.Background())
		assert.NoError(t, err)
	})

	t.Run("It honours context cancellation", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")
		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()

		provider, err := NewCachingProvider(WithIssuerURL(issuer.url(t)))
		require.NoError(t, err)

		_, err = provider.KeySet(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("It returns an error for missing issuer URL", func(t *testing.T) {
		_, err := NewCachingProvider(WithCacheTTL(5 * time.Minute))
		assert.ErrorContains(t, err, "issuer URL is required")
	})

	t.Run("It rejects invalid options", func(t *testing.T) {
		_, err := NewCachingProvider(WithIssuerURL(nil))
		assert.ErrorContains(t, err, "invalid option")
		_, err = NewCachingProvider(WithCacheTTL(-time.Second))
		assert.ErrorContains(t, err, "cache TTL cannot be negative")
		_, err = NewCachingProvider(WithCustomClient(nil))
		assert.Error(t, err)
		_, err = NewCachingProvider(WithCache(nil))
		assert.Error(t, err)
	})
}

func Test_CachingProvider_Resolve(t *testing.T) {
	issuer := newTestIssuer(t, "kid-1")
	provider, err := NewCachingProvider(WithIssuerURL(issuer.url(t)))
	require.NoError(t, err)

	t.Run("by kid", func(t *testing.T) {
		key, err := provider.Resolve(context.Background(), nil, map[string]any{"kid": "kid-1"}, nil)
		require.NoError(t, err)
		jwkKey, ok := key.(jwk.Key)
		require.True(t, ok)
		assert.Equal(t, "kid-1", jwkKey.KeyID())
	})

	t.Run("unknown kid", func(t *testing.T) {
		_, err := provider.Resolve(context.Background(), nil, map[string]any{"kid": "rotated-away"}, nil)
		assert.ErrorIs(t, err, core.ErrKeyNotFound)
	})

	t.Run("no kid returns the set", func(t *testing.T) {
		key, err := provider.Resolve(context.Background(), nil, nil, nil)
		require.NoError(t, err)
		_, ok := key.(jwk.Set)
		assert.True(t, ok)
	})
}

func Test_CachingProvider_Pipeline(t *testing.T) {
	issuer := newTestIssuer(t, "kid-1")
	provider, err := NewCachingProvider(WithIssuerURL(issuer.url(t)))
	require.NoError(t, err)

	c, err := core.New(core.Config{
		Secret:        provider.Secret(),
		VerifyOptions: core.VerifyOptions{Issuer: []string{issuer.server.URL}},
	})
	require.NoError(t, err)

	claims, err := c.Check(context.Background(), bearer(issuer.sign(t, map[string]any{"sub": "user-1"})))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject())

	other := newTestIssuer(t, "kid-1")
	_, err = c.Check(context.Background(), bearer(other.sign(t, map[string]any{"iss": issuer.server.URL})))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, core.ErrorCodeInvalidSignature, core.CodeOf(err))
}

func Test_memoryCache(t *testing.T) {
	t.Run("expired entries are refetched", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")
		now := time.Unix(1_700_000_000, 0)

		cache := newMemoryCache(http.DefaultClient, time.Minute)
		cache.now = func() time.Time { return now }

		uri := issuer.jwksURL(t).String()
		_, err := cache.Get(context.Background(), uri)
		require.NoError(t, err)
		_, err = cache.Get(context.Background(), uri)
		require.NoError(t, err)
		assert.EqualValues(t, 1, issuer.jwksRequests.Load())

		now = now.Add(2 * time.Minute)
		_, err = cache.Get(context.Background(), uri)
		require.NoError(t, err)
		assert.EqualValues(t, 2, issuer.jwksRequests.Load())
	})

	t.Run("a longer max-age extends the TTL", func(t *testing.T) {
		issuer := newTestIssuer(t, "kid-1")
		issuer.cacheControl = "public, max-age=3600"
		now := time.Unix(1_700_000_000, 0)

		cache := newMemoryCache(http.DefaultClient, time.Minute)
		cache.now = func() time.Time { return now }

		uri := issuer.jwksURL(t).String()
		_, err := cache.Get(context.Background(), uri)
		require.NoError(t, err)

		cache.cacheMu.RLock()
		expiresAt := cache.cache[uri].expiresAt
		cache.cacheMu.RUnlock()
		assert.Equal(t, now.Add(time.Hour), expiresAt)
	})

	t.Run("fetch failures are not cached", func(t *testing.T) {
		cache := newMemoryCache(http.DefaultClient, time.Minute)
		issuer := newTestIssuer(t, "kid-1")

		_, err := cache.Get(context.Background(), issuer.server.URL+"/missing")
		assert.ErrorContains(t, err, "request returned status 404")

		_, err = cache.Get(context.Background(), issuer.jwksURL(t).String())
		assert.NoError(t, err)
	})
}

func Test_parseCacheControl(t *testing.T) {
	testCases := []struct {
		header string
		want   time.Duration
	}{
		{header: "", want: 0},
		{header: "max-age=3600", want: time.Hour},
		{header: "public, max-age=60, must-revalidate", want: time.Minute},
		{header: "max-age=abc", want: 0},
		{header: "max-age=-5", want: 0},
		{header: "max-age=999999999", want: 0},
		{header: "no-cache", want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.header, func(t *testing.T) {
			assert.Equal(t, tc.want, parseCacheControl(tc.header))
		})
	}
}
