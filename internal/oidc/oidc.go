package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// maxDiscoveryBody bounds the discovery document read from the issuer.
const maxDiscoveryBody = 1 << 20

// WellKnownEndpoints holds the well known OIDC endpoints
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// GetWellKnownEndpointsFromIssuerURL fetches the discovery document of
// issuerURL and checks that it names expectedIssuer as its issuer.
func GetWellKnownEndpointsFromIssuerURL(
	ctx context.Context,
	client *http.Client,
	issuerURL url.URL,
	expectedIssuer string,
) (*WellKnownEndpoints, error) {
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuerURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well known endpoints: %w", err)
	}

	if client == nil {
		client = http.DefaultClient
	}

	r, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch well-known endpoints from url %s: %w", issuerURL.String(), err)
	}
	defer r.Body.Close()

	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("well-known endpoints request to %s returned status %d", issuerURL.String(), r.StatusCode)
	}

	var wkEndpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDiscoveryBody)).Decode(&wkEndpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}

	switch {
	case wkEndpoints.Issuer == "":
		return nil, fmt.Errorf("discovery document is missing required 'issuer' field")
	case wkEndpoints.Issuer != expectedIssuer:
		return nil, fmt.Errorf("issuer mismatch: discovery document names %q, expected %q", wkEndpoints.Issuer, expectedIssuer)
	case wkEndpoints.JWKSURI == "":
		return nil, fmt.Errorf("discovery document is missing required 'jwks_uri' field")
	}

	return &wkEndpoints, nil
}
