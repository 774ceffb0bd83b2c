package jwks

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultCacheTTL    = 15 * time.Minute
	defaultHTTPTimeout = 30 * time.Second
)

// ============================================================================
// CachingProvider Options
// ============================================================================

// Option is how options for the CachingProvider are set up.
type Option func(*providerConfig) error

// providerConfig holds internal configuration for creating a CachingProvider.
type providerConfig struct {
	issuerURL     *url.URL
	customJWKSURI *url.URL
	httpClient    *http.Client
	cacheTTL      time.Duration
	cache         Cache
}

// WithIssuerURL sets the OIDC issuer URL for JWKS discovery.
//
// The issuer URL is used to discover the JWKS endpoint via the
// .well-known/openid-configuration endpoint.
func WithIssuerURL(issuerURL *url.URL) Option {
	return func(c *providerConfig) error {
		if issuerURL == nil {
			return fmt.Errorf("issuer URL cannot be nil")
		}
		c.issuerURL = issuerURL
		return nil
	}
}

// WithCustomJWKSURI sets the JWKS URI directly, skipping OIDC discovery.
func WithCustomJWKSURI(jwksURI *url.URL) Option {
	return func(c *providerConfig) error {
		if jwksURI == nil {
			return fmt.Errorf("custom JWKS URI cannot be nil")
		}
		c.customJWKSURI = jwksURI
		return nil
	}
}

// WithCustomClient sets a custom HTTP client for discovery and JWKS fetches.
// If not specified, a default client with 30s timeout is used.
func WithCustomClient(client *http.Client) Option {
	return func(c *providerConfig) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithCacheTTL sets the cache refresh interval of the default in-memory
// cache. If not specified, defaults to 15 minutes. A Cache-Control max-age
// longer than the TTL extends it.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *providerConfig) error {
		if ttl < 0 {
			return fmt.Errorf("cache TTL cannot be negative")
		}
		if ttl == 0 {
			ttl = defaultCacheTTL
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithCache replaces the default in-memory cache, e.g. with a RedisCache
// shared by several instances.
func WithCache(cache Cache) Option {
	return func(c *providerConfig) error {
		if cache == nil {
			return fmt.Errorf("cache cannot be nil")
		}
		c.cache = cache
		return nil
	}
}

// ============================================================================
// MultiIssuerProvider Options
// ============================================================================

// MultiIssuerOption is how options for MultiIssuerProvider are set up.
type MultiIssuerOption func(*multiIssuerConfig) error

type multiIssuerConfig struct {
	issuers      []string
	cacheTTL     time.Duration
	httpClient   *http.Client
	cache        Cache
	maxProviders int
}

// WithIssuers sets the issuers whose key sets may be used. Required.
func WithIssuers(issuers ...string) MultiIssuerOption {
	return func(c *multiIssuerConfig) error {
		for _, issuer := range issuers {
			if issuer == "" {
				return fmt.Errorf("issuer cannot be empty")
			}
		}
		c.issuers = append(c.issuers, issuers...)
		return nil
	}
}

// WithMultiIssuerCacheTTL sets the cache refresh interval for all per-issuer providers.
func WithMultiIssuerCacheTTL(ttl time.Duration) MultiIssuerOption {
	return func(c *multiIssuerConfig) error {
		if ttl < 0 {
			return fmt.Errorf("cache TTL cannot be negative")
		}
		if ttl == 0 {
			ttl = defaultCacheTTL
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithMultiIssuerHTTPClient sets a custom HTTP client for all per-issuer providers.
func WithMultiIssuerHTTPClient(client *http.Client) MultiIssuerOption {
	return func(c *multiIssuerConfig) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithMultiIssuerCache sets a Cache shared by all per-issuer providers.
// Recommended with many issuers, where one in-memory entry per issuer adds up.
func WithMultiIssuerCache(cache Cache) MultiIssuerOption {
	return func(c *multiIssuerConfig) error {
		if cache == nil {
			return fmt.Errorf("cache cannot be nil")
		}
		c.cache = cache
		return nil
	}
}

// WithMaxProviders bounds the number of per-issuer providers kept in memory.
// The least recently used one is evicted first. 0 means unlimited.
func WithMaxProviders(maxProviders int) MultiIssuerOption {
	return func(c *multiIssuerConfig) error {
		if maxProviders < 0 {
			return fmt.Errorf("max providers cannot be negative")
		}
		c.maxProviders = maxProviders
		return nil
	}
}
