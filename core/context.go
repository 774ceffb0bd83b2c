package core

import "context"

// claimsKey is keyed by request property so several middlewares can store
// claims side by side without colliding with other context values.
type claimsKey struct {
	property string
}

// GetClaims retrieves the claims stored under property with type safety.
//
// Example usage:
//
//	claims, err := core.GetClaims[core.Claims](ctx, "jwt")
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context, property string) (T, error) {
	var zero T

	val := ctx.Value(claimsKey{property: property})
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, ErrClaimsNotFound
	}

	return claims, nil
}

// SetClaims stores claims under property.
func SetClaims(ctx context.Context, property string, claims any) context.Context {
	return context.WithValue(ctx, claimsKey{property: property}, claims)
}

// HasClaims checks if claims exist under property without retrieving them.
func HasClaims(ctx context.Context, property string) bool {
	return ctx.Value(claimsKey{property: property}) != nil
}
