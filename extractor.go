package jwtmiddleware

import (
	"errors"
	"net/http"

	"github.com/denali-js/go-jwt-middleware/core"
)

// AuthHeaderTokenExtractor is the default extractor, reading
// "Authorization: Bearer <token>".
var AuthHeaderTokenExtractor core.TokenExtractor = core.BearerTokenExtractor

// CookieTokenExtractor builds a TokenExtractor that takes a request and
// extracts the token from the cookie using the passed in cookieName.
// A missing cookie yields an empty token.
func CookieTokenExtractor(cookieName string) core.TokenExtractor {
	return func(r core.Request) (string, error) {
		header, ok := r.Header("cookie")
		if !ok {
			return "", nil
		}

		cookies, err := http.ParseCookie(header)
		if err != nil {
			return "", err
		}
		for _, c := range cookies {
			if c.Name == cookieName {
				return c.Value, nil
			}
		}
		return "", nil
	}
}

// ErrNotHTTPRequest is returned by extractors that need the full
// *http.Request when they are given another kind of request.
var ErrNotHTTPRequest = errors.New("request does not carry an *http.Request")

// ParameterTokenExtractor returns a TokenExtractor that extracts
// the token from the specified query string parameter.
func ParameterTokenExtractor(param string) core.TokenExtractor {
	return func(r core.Request) (string, error) {
		httpReq := core.RawHTTPRequest(r)
		if httpReq == nil {
			return "", ErrNotHTTPRequest
		}
		return httpReq.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. A missing
// authorization header counts as an empty token; any other error is returned
// immediately.
func MultiTokenExtractor(extractors ...core.TokenExtractor) core.TokenExtractor {
	return func(r core.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if errors.Is(err, core.ErrAuthorizationHeaderMissing) {
				continue
			}
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
