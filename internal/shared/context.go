package shared

import "context"

// Role enumerates the account roles understood by the API.
type Role string

const (
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleUser         Role = "USER"
)

// Identity describes the authenticated actor extracted from the bearer token.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
