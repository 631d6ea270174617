package middleware

import (
	"context"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/auth"
	"hraccess/internal/requestctx"
)

type ctxKey string

const (
	ctxKeyUser        ctxKey = "user"
	ctxKeyPermissions ctxKey = "permissions"
)

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	ctx = requestctx.WithActorID(ctx, user.UserID)
	return context.WithValue(ctx, ctxKeyUser, user)
}

// GetPermissions returns the permissions resolved earlier in the chain, if any.
func GetPermissions(ctx context.Context) (access.Permissions, bool) {
	perms, ok := ctx.Value(ctxKeyPermissions).(access.Permissions)
	return perms, ok
}

func withPermissions(ctx context.Context, perms access.Permissions) context.Context {
	return context.WithValue(ctx, ctxKeyPermissions, perms)
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
