package core

import (
	"net/http"
	"strings"
)

// Request is the view of an inbound request the pipeline needs.
// Header lookups are case-insensitive; ok reports whether the header is
// present at all, even with an empty value.
type Request interface {
	Method() string
	Header(name string) (value string, ok bool)
}

// TokenExtractor pulls the raw token out of a request. It returns an error
// when the request does not carry a usable token.
type TokenExtractor func(r Request) (string, error)

// HTTPRequest adapts an *http.Request to Request.
func HTTPRequest(r *http.Request) Request {
	return httpRequest{r: r}
}

type httpRequest struct {
	r *http.Request
}

func (h httpRequest) Method() string {
	return h.r.Method
}

// RawHTTPRequest returns the *http.Request behind r when r came from
// HTTPRequest, and nil otherwise.
func RawHTTPRequest(r Request) *http.Request {
	if h, ok := r.(httpRequest); ok {
		return h.r
	}
	return nil
}

func (h httpRequest) Header(name string) (string, bool) {
	values := h.r.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, ","), true
}

// HeaderMap is a Request backed by a plain map, keyed by lower-case header
// name. Transports without an http.Header (gRPC metadata, tests) use it.
type HeaderMap struct {
	RequestMethod string
	Headers       map[string]string
}

func (h HeaderMap) Method() string {
	return h.RequestMethod
}

func (h HeaderMap) Header(name string) (string, bool) {
	v, ok := h.Headers[strings.ToLower(name)]
	return v, ok
}

// IsCORSPreflight reports whether r is an OPTIONS request whose
// access-control-request-headers list names authorization.
func IsCORSPreflight(r Request) bool {
	if r.Method() != http.MethodOptions {
		return false
	}

	requested, ok := r.Header("access-control-request-headers")
	if !ok {
		return false
	}

	for _, header := range strings.Split(requested, ",") {
		if strings.TrimSpace(header) == "authorization" {
			return true
		}
	}
	return false
}

// BearerTokenExtractor reads the token from "Authorization: Bearer <token>".
func BearerTokenExtractor(r Request) (string, error) {
	authHeader, ok := r.Header("authorization")
	if !ok {
		return "", ErrAuthorizationHeaderMissing
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		return "", ErrAuthorizationHeaderFormat
	}

	scheme, credentials := parts[0], parts[1]
	if !strings.EqualFold(scheme, "bearer") {
		return "", ErrAuthorizationScheme
	}

	return credentials, nil
}
