// Package middleware provides net/http guards over an authcore service:
// bearer-token resolution plus role and permission checks expressed as
// rbac.Requirement values.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eventhive/authcore"
	"github.com/eventhive/authcore/rbac"
)

type currentUserContextKey struct{}

// CurrentUserFromContext returns the caller resolved by Guard, when any.
func CurrentUserFromContext(ctx context.Context) (*authcore.CurrentUser, bool) {
	cu, ok := ctx.Value(currentUserContextKey{}).(*authcore.CurrentUser)
	return cu, ok
}

// Guard enforces an access requirement on every wrapped request. A
// missing, unknown or expired token yields 401; a valid session whose
// role fails the requirement yields 403. On success the resolved user
// rides the request context.
//
// A zero Requirement means "authenticated only".
func Guard(service *authcore.AuthService, req rbac.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			current, err := service.GetCurrentUser(r.Context(), token)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if current == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if err := service.Authorize(current.User.Role, req); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserContextKey{}, current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is a Guard shorthand allowing any of the listed roles.
func RequireRole(service *authcore.AuthService, roles ...rbac.Role) func(http.Handler) http.Handler {
	return Guard(service, rbac.Requirement{Required: true, Roles: roles})
}

// RequirePermissions is a Guard shorthand demanding every listed
// permission.
func RequirePermissions(service *authcore.AuthService, perms ...rbac.Permission) func(http.Handler) http.Handler {
	return Guard(service, rbac.Requirement{Required: true, Permissions: perms, RequireAll: true})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
