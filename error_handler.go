package jwtmiddleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/denali-js/go-jwt-middleware/core"
)

// ErrorHandler is called when the middleware rejects a request. err matches
// core.ErrUnauthorized for every authentication failure and
// core.ErrInvalidConfiguration when the middleware could not be built.
// A custom ErrorHandler must write a response; the next handler is not called.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler, following
// the error fields of RFC 6750.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

// Response describes how an error is presented to the client.
type Response struct {
	Status int
	Body   ErrorResponse
	// Challenge is the WWW-Authenticate value, empty for server errors.
	Challenge string
}

var descriptions = map[string]string{
	core.ErrorCodeExtractionFailed:  "The authorization header is malformed",
	core.ErrorCodeTokenMalformed:    "The access token is malformed",
	core.ErrorCodeTokenExpired:      "The access token expired",
	core.ErrorCodeTokenNotYetValid:  "The access token is not yet valid",
	core.ErrorCodeTokenTooOld:       "The access token is too old",
	core.ErrorCodeInvalidSignature:  "The access token signature is invalid",
	core.ErrorCodeInvalidAlgorithm:  "The access token uses an unsupported algorithm",
	core.ErrorCodeInvalidIssuer:     "The access token was issued by an untrusted issuer",
	core.ErrorCodeInvalidAudience:   "The access token audience does not match",
	core.ErrorCodeInvalidSubject:    "The access token claims are invalid",
	core.ErrorCodeInvalidJWTID:      "The access token claims are invalid",
	core.ErrorCodeInvalidClaims:     "The access token claims are invalid",
	core.ErrorCodeKeyNotFound:       "Unable to verify the access token",
	core.ErrorCodeSecretResolution:  "Unable to verify the access token",
	core.ErrorCodeVerificationError: "The access token is invalid",
}

// ResponseFor maps err to a status code, body and challenge. The framework
// adapters share it with DefaultErrorHandler.
func ResponseFor(err error) Response {
	if !errors.Is(err, core.ErrUnauthorized) {
		return Response{
			Status: http.StatusInternalServerError,
			Body: ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "An internal error occurred while processing the request",
			},
		}
	}

	code := core.CodeOf(err)

	// Per RFC 6750 section 3.1 a request without credentials gets a bare challenge.
	if code == core.ErrorCodeTokenMissing {
		return Response{
			Status:    http.StatusUnauthorized,
			Body:      ErrorResponse{Error: "invalid_token", ErrorCode: code},
			Challenge: "Bearer",
		}
	}

	errorType := "invalid_token"
	if code == core.ErrorCodeExtractionFailed || code == core.ErrorCodeTokenMalformed {
		errorType = "invalid_request"
	}

	description, ok := descriptions[code]
	if !ok {
		description = "The access token is invalid"
	}

	return Response{
		Status: http.StatusUnauthorized,
		Body: ErrorResponse{
			Error:            errorType,
			ErrorDescription: description,
			ErrorCode:        code,
		},
		Challenge: fmt.Sprintf(`Bearer error=%q, error_description=%q`, errorType, description),
	}
}

// DefaultErrorHandler is the default error handler implementation for the
// JWTMiddleware. Authentication failures get a 401 with a WWW-Authenticate
// challenge, anything else a 500.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	resp := ResponseFor(err)

	w.Header().Set("Content-Type", "application/json")
	if resp.Challenge != "" {
		w.Header().Set("WWW-Authenticate", resp.Challenge)
	}
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
