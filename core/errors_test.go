package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnauthorizedError(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := NewUnauthorizedError(ErrorCodeInvalidSignature, "jwt verification failed", cause)

	assert.Equal(t, "jwt verification failed: signature mismatch", err.Error())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, "no cause", NewUnauthorizedError("x", "no cause", nil).Error())
}

func TestConfigurationError(t *testing.T) {
	err := configError("Secret", "secret is required")

	assert.Equal(t, "invalid jwt configuration: Secret: secret is required", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "invalid jwt configuration: bad", (&ConfigurationError{Message: "bad"}).Error())
}

func TestCodeOf(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{NewUnauthorizedError("custom", "m", nil), "custom"},
		{fmt.Errorf("%w: at 12:00", ErrTokenExpired), ErrorCodeTokenExpired},
		{ErrTokenIssuedInFuture, ErrorCodeTokenNotYetValid},
		{fmt.Errorf("%w: kid", ErrKeyNotFound), ErrorCodeKeyNotFound},
		{ErrInvalidAudience, ErrorCodeInvalidAudience},
		{errors.New("something else"), ErrorCodeVerificationError},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
}
