// Package identity carries the authenticated caller through a request context.
package identity

import "context"

// userIDKey is a private type for the identity context key.
type userIDKey struct{}

// WithUserID returns a copy of ctx that carries the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, or false when the
// request did not pass the identity middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
