package jwks

import (
	"container/list"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/denali-js/go-jwt-middleware/core"
)

// MultiIssuerProvider resolves keys for tokens from several issuers. The
// token's (unverified) iss claim picks which issuer's key set is consulted;
// it must be one of the configured issuers. Per-issuer CachingProviders are
// created on first use.
//
// The iss claim only selects a key set. Set VerifyOptions.Issuer to the same
// list so verification checks it as well.
//
//	provider, _ := jwks.NewMultiIssuerProvider(
//	    jwks.WithIssuers("https://tenant1.example.com/", "https://tenant2.example.com/"),
//	)
//	cfg := core.Config{
//	    Secret: provider.Secret(),
//	    VerifyOptions: core.VerifyOptions{
//	        Issuer: []string{"https://tenant1.example.com/", "https://tenant2.example.com/"},
//	    },
//	}
type MultiIssuerProvider struct {
	mu           sync.Mutex
	allowed      map[string]bool
	providers    map[string]*providerEntry
	lruList      *list.List
	maxProviders int
	cacheTTL     time.Duration
	httpClient   *http.Client
	cache        Cache
}

type providerEntry struct {
	provider   *CachingProvider
	lruElement *list.Element
}

// NewMultiIssuerProvider creates a new MultiIssuerProvider. WithIssuers is required.
func NewMultiIssuerProvider(opts ...MultiIssuerOption) (*MultiIssuerProvider, error) {
	config := &multiIssuerConfig{
		cacheTTL:   defaultCacheTTL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if len(config.issuers) == 0 {
		return nil, fmt.Errorf("at least one issuer is required (use WithIssuers)")
	}

	allowed := make(map[string]bool, len(config.issuers))
	for _, issuer := range config.issuers {
		if _, err := url.Parse(issuer); err != nil {
			return nil, fmt.Errorf("invalid issuer URL %q: %w", issuer, err)
		}
		allowed[issuer] = true
	}

	return &MultiIssuerProvider{
		allowed:      allowed,
		providers:    make(map[string]*providerEntry),
		lruList:      list.New(),
		maxProviders: config.maxProviders,
		cacheTTL:     config.cacheTTL,
		httpClient:   config.httpClient,
		cache:        config.cache,
	}, nil
}

// Resolve is a core.HeaderResolver. It routes to the provider of the
// token's issuer and looks the key up by kid there.
func (p *MultiIssuerProvider) Resolve(ctx context.Context, r core.Request, header map[string]any, payload any) (any, error) {
	claims, _ := payload.(map[string]any)
	issuer, _ := claims["iss"].(string)
	if issuer == "" {
		return nil, fmt.Errorf("%w: token has no issuer", core.ErrKeyNotFound)
	}
	if !p.allowed[issuer] {
		return nil, fmt.Errorf("%w: issuer %q is not trusted", core.ErrKeyNotFound, issuer)
	}

	provider, err := p.getOrCreateProvider(issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS provider for issuer %q: %w", issuer, err)
	}

	return provider.Resolve(ctx, r, header, payload)
}

// Secret returns a core.Secret that resolves keys through this provider.
func (p *MultiIssuerProvider) Secret() core.Secret {
	return core.ResolveWithHeader(p.Resolve)
}

func (p *MultiIssuerProvider) getOrCreateProvider(issuer string) (*CachingProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.providers[issuer]; ok {
		p.lruList.MoveToFront(entry.lruElement)
		return entry.provider, nil
	}

	if p.maxProviders > 0 && len(p.providers) >= p.maxProviders {
		p.evictLRU()
	}

	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer URL %q: %w", issuer, err)
	}

	opts := []Option{
		WithIssuerURL(issuerURL),
		WithCacheTTL(p.cacheTTL),
		WithCustomClient(p.httpClient),
	}
	if p.cache != nil {
		opts = append(opts, WithCache(p.cache))
	}

	provider, err := NewCachingProvider(opts...)
	if err != nil {
		return nil, err
	}

	p.providers[issuer] = &providerEntry{
		provider:   provider,
		lruElement: p.lruList.PushFront(issuer),
	}
	return provider, nil
}

// evictLRU removes the least recently used provider. Caller holds p.mu.
func (p *MultiIssuerProvider) evictLRU() {
	oldest := p.lruList.Back()
	if oldest == nil {
		return
	}
	delete(p.providers, oldest.Value.(string))
	p.lruList.Remove(oldest)
}

// ProviderCount returns the number of issuer-specific providers currently cached.
func (p *MultiIssuerProvider) ProviderCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.providers)
}
