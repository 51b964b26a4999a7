package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity is the trusted caller identity extracted from the bearer token.
type Identity struct {
	TokenString string
	UserID      uuid.UUID
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}

// UserID returns the caller's user id, or uuid.Nil when the request is anonymous.
func UserID(ctx context.Context) uuid.UUID {
	if id := GetIdentity(ctx); id != nil {
		return id.UserID
	}
	return uuid.Nil
}
