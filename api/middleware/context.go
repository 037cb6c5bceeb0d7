package middleware

import (
	"context"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxActorID  contextKey = "actor_id"
	ctxRole     contextKey = "actor_role"
	ctxJTI      contextKey = "jti"
	ctxShopName contextKey = "shop_name"
)

// ActorFromContext returns the authenticated caller seeded by the auth middleware.
func ActorFromContext(ctx context.Context) (uuid.UUID, enums.ActorRole, bool) {
	if ctx == nil {
		return uuid.Nil, "", false
	}
	id, ok := ctx.Value(ctxActorID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, "", false
	}
	role, _ := ctx.Value(ctxRole).(enums.ActorRole)
	return id, role, true
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

// SessionIDFromContext returns the jti of the token that authenticated the request.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxJTI).(string); ok {
		return v
	}
	return ""
}

func ShopNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopName).(string); ok {
		return v
	}
	return ""
}

// WithActor injects an authenticated caller into the context.
func WithActor(ctx context.Context, id uuid.UUID, role enums.ActorRole, jti string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorID, id)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxJTI, jti)
}
