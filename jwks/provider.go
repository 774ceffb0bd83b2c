package jwks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/denali-js/go-jwt-middleware/core"
	"github.com/denali-js/go-jwt-middleware/internal/oidc"
)

// Cache defines the interface for JWKS caching implementations.
type Cache interface {
	// Get retrieves a JWKS from the cache or fetches it if not cached.
	Get(ctx context.Context, jwksURI string) (jwk.Set, error)
}

// memoryCache keeps parsed key sets in process memory.
type memoryCache struct {
	httpClient *http.Client
	cacheMu    sync.RWMutex
	cache      map[string]*cachedJWKS
	refreshTTL time.Duration
	now        func() time.Time
}

type cachedJWKS struct {
	set        jwk.Set
	expiresAt  time.Time
	refreshAt  time.Time   // proactive refresh threshold, 80% of TTL
	refreshing atomic.Bool // one background refresh at a time
	fetchMu    sync.Mutex  // one fetch per URI at a time
}

func newMemoryCache(client *http.Client, ttl time.Duration) *memoryCache {
	return &memoryCache{
		httpClient: client,
		cache:      make(map[string]*cachedJWKS),
		refreshTTL: ttl,
		now:        time.Now,
	}
}

func (c *memoryCache) Get(ctx context.Context, jwksURI string) (jwk.Set, error) {
	now := c.now()

	c.cacheMu.RLock()
	cached, exists := c.cache[jwksURI]
	if exists && now.Before(cached.expiresAt) {
		result := cached.set
		shouldRefresh := now.After(cached.refreshAt)
		c.cacheMu.RUnlock()

		if shouldRefresh && cached.refreshing.CompareAndSwap(false, true) {
			go c.backgroundRefresh(jwksURI, cached)
		}

		return result, nil
	}
	c.cacheMu.RUnlock()

	if !exists {
		c.cacheMu.Lock()
		cached, exists = c.cache[jwksURI]
		if !exists {
			cached = &cachedJWKS{}
			c.cache[jwksURI] = cached
		}
		c.cacheMu.Unlock()
	}

	cached.fetchMu.Lock()
	defer cached.fetchMu.Unlock()

	// Another goroutine may have fetched while we waited.
	c.cacheMu.RLock()
	isValid := now.Before(cached.expiresAt)
	result := cached.set
	c.cacheMu.RUnlock()

	if isValid {
		return result, nil
	}

	set, maxAge, err := c.fetch(ctx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("could not fetch JWKS: %w", err)
	}
	c.store(cached, set, maxAge)

	return set, nil
}

func (c *memoryCache) fetch(ctx context.Context, jwksURI string) (jwk.Set, time.Duration, error) {
	raw, maxAge, err := fetchJWKS(ctx, c.httpClient, jwksURI)
	if err != nil {
		return nil, 0, err
	}
	set, err := jwk.Parse(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return set, maxAge, nil
}

func (c *memoryCache) store(cached *cachedJWKS, set jwk.Set, maxAge time.Duration) {
	ttl := effectiveTTL(c.refreshTTL, maxAge)
	now := c.now()

	c.cacheMu.Lock()
	cached.set = set
	cached.expiresAt = now.Add(ttl)
	cached.refreshAt = now.Add(ttl * 4 / 5)
	c.cacheMu.Unlock()
}

// backgroundRefresh refetches a key set that is still valid but past its
// refresh threshold, so requests never wait on expiry.
func (c *memoryCache) backgroundRefresh(jwksURI string, cached *cachedJWKS) {
	defer cached.refreshing.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), defaultHTTPTimeout)
	defer cancel()

	set, maxAge, err := c.fetch(ctx, jwksURI)
	if err != nil {
		return
	}
	c.store(cached, set, maxAge)
}

// CachingProvider fetches the key set of one issuer and caches it.
// It is safe for concurrent use.
type CachingProvider struct {
	cache      Cache
	issuerURL  *url.URL
	httpClient *http.Client

	// jwksURI is discovered lazily. Failed discoveries are retried.
	jwksURIMu sync.Mutex
	jwksURI   string
}

// NewCachingProvider builds and returns a new CachingProvider.
//
// One of WithIssuerURL or WithCustomJWKSURI is required.
//
// Example:
//
//	provider, err := jwks.NewCachingProvider(
//	    jwks.WithIssuerURL(issuerURL),
//	    jwks.WithCacheTTL(5*time.Minute),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg := core.Config{
//	    Secret: provider.Secret(),
//	    VerifyOptions: core.VerifyOptions{Issuer: []string{issuerURL.String()}},
//	}
func NewCachingProvider(opts ...Option) (*CachingProvider, error) {
	config := &providerConfig{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cacheTTL:   defaultCacheTTL,
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if config.issuerURL == nil && config.customJWKSURI == nil {
		return nil, fmt.Errorf("issuer URL is required (use WithIssuerURL or WithCustomJWKSURI)")
	}

	cp := &CachingProvider{
		issuerURL:  config.issuerURL,
		httpClient: config.httpClient,
		cache:      config.cache,
	}

	if config.customJWKSURI != nil {
		cp.jwksURI = config.customJWKSURI.String()
	}

	if cp.cache == nil {
		cp.cache = newMemoryCache(config.httpClient, config.cacheTTL)
	}

	return cp, nil
}

// getJWKSURI returns the JWKS URI, discovering it if necessary.
func (c *CachingProvider) getJWKSURI(ctx context.Context) (string, error) {
	c.jwksURIMu.Lock()
	defer c.jwksURIMu.Unlock()

	if c.jwksURI != "" {
		return c.jwksURI, nil
	}

	wkEndpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(
		ctx,
		c.httpClient,
		*c.issuerURL,
		c.issuerURL.String(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to discover JWKS URI: %w", err)
	}

	c.jwksURI = wkEndpoints.JWKSURI
	return c.jwksURI, nil
}

// KeySet returns the issuer's current key set.
func (c *CachingProvider) KeySet(ctx context.Context) (jwk.Set, error) {
	jwksURI, err := c.getJWKSURI(ctx)
	if err != nil {
		return nil, err
	}

	return c.cache.Get(ctx, jwksURI)
}

// Resolve is a core.HeaderResolver. It returns the key named by the token's
// kid header, or the whole set when the token carries no kid.
func (c *CachingProvider) Resolve(ctx context.Context, _ core.Request, header map[string]any, _ any) (any, error) {
	set, err := c.KeySet(ctx)
	if err != nil {
		return nil, err
	}

	kid, _ := header["kid"].(string)
	if kid == "" {
		return set, nil
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", core.ErrKeyNotFound, kid)
	}
	return key, nil
}

// Secret returns a core.Secret that resolves keys through this provider.
func (c *CachingProvider) Secret() core.Secret {
	return core.ResolveWithHeader(c.Resolve)
}
