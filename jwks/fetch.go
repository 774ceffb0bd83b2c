package jwks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxJWKSBody limits the key set read from the network. Real sets are a few KB.
const maxJWKSBody = 1 << 20

// fetchJWKS downloads the raw key set at jwksURI. The returned duration is the
// Cache-Control max-age, or 0 when absent or unreasonable.
func fetchJWKS(ctx context.Context, client *http.Client, jwksURI string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("request returned status %d, expected 200", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBody))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read JWKS: %w", err)
	}

	return body, parseCacheControl(resp.Header.Get("Cache-Control")), nil
}

// parseCacheControl extracts max-age from a Cache-Control header.
// Values outside [1s, 7d] are ignored.
func parseCacheControl(cacheControl string) time.Duration {
	const (
		maxAgePrefix = "max-age="
		minTTL       = time.Second
		maxTTL       = 7 * 24 * time.Hour
	)

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, maxAgePrefix) {
			continue
		}

		seconds, err := strconv.ParseInt(strings.TrimPrefix(directive, maxAgePrefix), 10, 64)
		if err != nil || seconds <= 0 {
			continue
		}

		ttl := time.Duration(seconds) * time.Second
		if ttl < minTTL || ttl > maxTTL {
			return 0
		}
		return ttl
	}

	return 0
}

// effectiveTTL lets a longer provider max-age extend the configured TTL.
func effectiveTTL(configured, maxAge time.Duration) time.Duration {
	if maxAge > configured {
		return maxAge
	}
	return configured
}
