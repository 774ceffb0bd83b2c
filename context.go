package jwtmiddleware

import (
	"context"

	"github.com/denali-js/go-jwt-middleware/core"
)

// GetClaims retrieves claims stored under the default request property
// ("jwt") with type safety using generics.
//
// Example:
//
//	claims, err := jwtmiddleware.GetClaims[core.Claims](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.Subject())
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx, core.DefaultRequestProperty)
}

// GetClaimsAt retrieves claims stored under a custom request property.
func GetClaimsAt[T any](ctx context.Context, property string) (T, error) {
	return core.GetClaims[T](ctx, property)
}

// MustGetClaims retrieves claims from the default property or panics.
// Use only when you are certain claims exist (e.g., after middleware has run).
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist under the default property.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx, core.DefaultRequestProperty)
}
