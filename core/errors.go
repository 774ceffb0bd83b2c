package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for request authentication.
var (
	// ErrUnauthorized is the single externally visible failure of the
	// pipeline. Every *UnauthorizedError matches it with errors.Is.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfiguration is matched by every *ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid jwt configuration")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// Extraction errors returned by BearerTokenExtractor.
var (
	ErrAuthorizationHeaderMissing = errors.New("no authorization header present")
	ErrAuthorizationHeaderFormat  = errors.New(`bad authorization header format, expected "Authorization: Bearer token"`)
	ErrAuthorizationScheme        = errors.New("format is Authorization: Bearer [token]")
	ErrTokenMissing               = errors.New("jwt missing")
)

// Verification errors. Verifier implementations wrap these so the pipeline
// can attach a precise code to the resulting UnauthorizedError.
var (
	ErrTokenMalformed      = errors.New("jwt malformed")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrAlgorithmNotAllowed = errors.New("algorithm not allowed")
	ErrKeyNotFound         = errors.New("no verification key matches the token")
	ErrTokenExpired        = errors.New("jwt expired")
	ErrTokenNotYetValid    = errors.New("jwt not active")
	ErrTokenIssuedInFuture = errors.New("jwt issued in the future")
	ErrTokenTooOld         = errors.New("maxAge exceeded")
	ErrInvalidAudience     = errors.New("jwt audience invalid")
	ErrInvalidIssuer       = errors.New("jwt issuer invalid")
	ErrInvalidSubject      = errors.New("jwt subject invalid")
	ErrInvalidJWTID        = errors.New("jwt id invalid")
	ErrInvalidClaims       = errors.New("jwt claims invalid")
	ErrSecretUnavailable   = errors.New("secret resolver returned no key")
)

// Error codes carried by UnauthorizedError.
const (
	ErrorCodeTokenMissing      = "token_missing"
	ErrorCodeExtractionFailed  = "extraction_failed"
	ErrorCodeSecretResolution  = "secret_resolution_failed"
	ErrorCodeTokenMalformed    = "token_malformed"
	ErrorCodeTokenExpired      = "token_expired"
	ErrorCodeTokenNotYetValid  = "token_not_yet_valid"
	ErrorCodeTokenTooOld       = "token_too_old"
	ErrorCodeInvalidSignature  = "invalid_signature"
	ErrorCodeInvalidAlgorithm  = "invalid_algorithm"
	ErrorCodeInvalidIssuer     = "invalid_issuer"
	ErrorCodeInvalidAudience   = "invalid_audience"
	ErrorCodeInvalidSubject    = "invalid_subject"
	ErrorCodeInvalidJWTID      = "invalid_jwt_id"
	ErrorCodeInvalidClaims     = "invalid_claims"
	ErrorCodeKeyNotFound       = "key_not_found"
	ErrorCodeVerificationError = "verification_failed"
)

// UnauthorizedError is returned by Core.Check for every per-request failure:
// extraction, secret resolution and verification all converge here.
// The host is expected to translate it into an HTTP 401 (or its equivalent).
type UnauthorizedError struct {
	// Code is a machine-readable error code (e.g. "token_expired").
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *UnauthorizedError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UnauthorizedError) Unwrap() error {
	return e.Cause
}

// Is allows the error to be compared with ErrUnauthorized.
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(code, message string, cause error) *UnauthorizedError {
	return &UnauthorizedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigurationError reports a programmer error in Config. It is returned at
// construction time and is never a per-request Unauthorized.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Field, e.Message)
}

// Is allows the error to be compared with ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func configError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// verificationCodes is checked in order; the first match wins.
var verificationCodes = []struct {
	err  error
	code string
}{
	{ErrTokenMalformed, ErrorCodeTokenMalformed},
	{ErrAlgorithmNotAllowed, ErrorCodeInvalidAlgorithm},
	{ErrKeyNotFound, ErrorCodeKeyNotFound},
	{ErrInvalidSignature, ErrorCodeInvalidSignature},
	{ErrTokenExpired, ErrorCodeTokenExpired},
	{ErrTokenNotYetValid, ErrorCodeTokenNotYetValid},
	{ErrTokenIssuedInFuture, ErrorCodeTokenNotYetValid},
	{ErrTokenTooOld, ErrorCodeTokenTooOld},
	{ErrInvalidAudience, ErrorCodeInvalidAudience},
	{ErrInvalidIssuer, ErrorCodeInvalidIssuer},
	{ErrInvalidSubject, ErrorCodeInvalidSubject},
	{ErrInvalidJWTID, ErrorCodeInvalidJWTID},
	{ErrInvalidClaims, ErrorCodeInvalidClaims},
}

// CodeOf returns the error code for err. Errors that are not
// UnauthorizedErrors are classified by the verification sentinel they wrap.
func CodeOf(err error) string {
	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) {
		return unauthorized.Code
	}
	for _, vc := range verificationCodes {
		if errors.Is(err, vc.err) {
			return vc.code
		}
	}
	return ErrorCodeVerificationError
}
