package jwtgrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/denali-js/go-jwt-middleware/core"
)

// ErrorHandler converts a rejection into the status error returned to the client.
type ErrorHandler func(error) error

var statusMessages = map[string]string{
	core.ErrorCodeTokenMissing:     "missing credentials",
	core.ErrorCodeExtractionFailed: "invalid authorization metadata format, expected: Bearer <token>",
	core.ErrorCodeTokenMalformed:   "malformed token",
	core.ErrorCodeTokenExpired:     "token expired",
	core.ErrorCodeTokenNotYetValid: "token not yet valid",
	core.ErrorCodeTokenTooOld:      "token too old",
	core.ErrorCodeInvalidSignature: "invalid signature",
	core.ErrorCodeInvalidAlgorithm: "unsupported algorithm",
	core.ErrorCodeInvalidIssuer:    "invalid issuer",
	core.ErrorCodeInvalidAudience:  "invalid audience",
	core.ErrorCodeKeyNotFound:      "unable to verify token",
	core.ErrorCodeSecretResolution: "unable to verify token",
}

// DefaultErrorHandler maps authentication failures to codes.Unauthenticated
// and everything else, configuration errors included, to codes.Internal.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	if !errors.Is(err, core.ErrUnauthorized) {
		return status.Error(codes.Internal, "authentication is misconfigured")
	}

	msg, ok := statusMessages[core.CodeOf(err)]
	if !ok {
		msg = "invalid or malformed token"
	}
	return status.Error(codes.Unauthenticated, msg)
}
