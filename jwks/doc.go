/*
Package jwks resolves verification keys from JSON Web Key Sets.

A CachingProvider serves one issuer. It discovers the JWKS endpoint through
the issuer's OpenID configuration (or uses WithCustomJWKSURI), caches the set
and hands keys to the pipeline as a core.HeaderResolver that selects by the
token's kid header:

	issuerURL, _ := url.Parse("https://auth.example.com/")
	provider, err := jwks.NewCachingProvider(jwks.WithIssuerURL(issuerURL))
	if err != nil {
	    log.Fatal(err)
	}

	mw, err := jwtmiddleware.New(jwtmiddleware.WithConfig(core.Config{
	    Secret: provider.Secret(),
	    VerifyOptions: core.VerifyOptions{
	        Issuer:   []string{issuerURL.String()},
	        Audience: []string{"https://api.example.com"},
	    },
	}))

# Caching

The default cache lives in process memory. Entries expire after the TTL
(WithCacheTTL, default 15 minutes) or the provider's Cache-Control max-age,
whichever is longer, and are refreshed in the background once 80% of that
time has passed.

RedisCache stores the raw JWKS document in Redis so that several instances
share a single fetch:

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	cache, err := jwks.NewRedisCache(ctx, client, jwks.WithRedisTTL(10*time.Minute))
	provider, err := jwks.NewCachingProvider(
	    jwks.WithIssuerURL(issuerURL),
	    jwks.WithCache(cache),
	)

# Multiple issuers

MultiIssuerProvider picks the issuer from the token's unverified iss claim,
restricted to the list given to WithIssuers, and keeps one CachingProvider per
issuer with optional LRU eviction (WithMaxProviders). The claim is only a
lookup key; list the same issuers in VerifyOptions.Issuer.
*/
package jwks
