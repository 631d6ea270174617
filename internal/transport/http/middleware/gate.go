package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"hraccess/internal/domain/access"
	"hraccess/internal/transport/http/api"
)

type PermissionResolver interface {
	Resolve(ctx context.Context, userID string) (access.Permissions, error)
}

type GateRecorder interface {
	RecordGate(feature string, allowed bool)
}

// RequireFeature admits the request only when the caller's effective permissions
// include feature. Permissions are read from the store on each request so a change
// takes effect without a new token; the resolved value is kept on the context for
// the handler.
func RequireFeature(feature access.Feature, resolver PermissionResolver, recorder GateRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perms, ok := resolvePermissions(w, r, resolver)
			if !ok {
				return
			}

			allowed := perms.Has(feature)
			if recorder != nil {
				recorder.RecordGate(feature.String(), allowed)
			}
			if !allowed {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r.WithContext(withPermissions(r.Context(), perms)))
		})
	}
}

// ResolvePermissions loads the caller's permissions without gating on any feature.
func ResolvePermissions(resolver PermissionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perms, ok := resolvePermissions(w, r, resolver)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(withPermissions(r.Context(), perms)))
		})
	}
}

func resolvePermissions(w http.ResponseWriter, r *http.Request, resolver PermissionResolver) (access.Permissions, bool) {
	if perms, ok := GetPermissions(r.Context()); ok {
		return perms, true
	}

	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
		return access.Permissions{}, false
	}

	perms, err := resolver.Resolve(r.Context(), user.UserID)
	if errors.Is(err, access.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "account no longer active", GetRequestID(r.Context()))
		return access.Permissions{}, false
	}
	if err != nil {
		slog.Error("permission resolve failed", "userId", user.UserID, "err", err, "requestId", GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
		return access.Permissions{}, false
	}
	return perms, true
}
