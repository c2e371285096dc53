package auth

import (
	"log/slog"
	"net/http"
	"strings"

	appMiddleware "github.com/FACorreiaa/sidara-archive/app/middleware"
	"github.com/FACorreiaa/sidara-archive/internal/api"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

// Authenticate validates the bearer token and stores the caller identity in
// the request context. Requests without a valid token get 401.
func Authenticate(logger *slog.Logger, authService AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Access token required")
				return
			}

			headerParts := strings.Fields(authHeader)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			identity, err := authService.Verify(ctx, headerParts[1])
			if err != nil {
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx = appMiddleware.WithIdentity(ctx, identity)
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", identity.ID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoleMiddleware rejects callers without role with 403. Runs after Authenticate.
func RequireRoleMiddleware(logger *slog.Logger, role types.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity, ok := appMiddleware.IdentityFromContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "Identity missing from context")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			if err := RequireRole(identity, role); err != nil {
				logger.WarnContext(ctx, "Role check failed",
					slog.String("required_role", string(role)),
					slog.String("actual_role", string(identity.Role)))
				api.ErrorResponse(w, r, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
