package shared

import "context"

// Identity describes the authenticated caller extracted from a session token.
type Identity struct {
	UserID int64
	Email  string
}

type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity stores the caller identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
