package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sentinel-id/sentinel/internal/observability"
	"github.com/sentinel-id/sentinel/internal/platform/httpx"
	"github.com/sentinel-id/sentinel/internal/shared"
)

// PermissionSource yields the aggregated permission set for a user.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Source  PermissionSource
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// RequireAny ensures the current user holds at least one of the required
// permissions. With no permissions listed the route is unrestricted.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := Normalize(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				m.deny(w, required)
				return
			}
			granted, err := m.Source.EffectivePermissions(r.Context(), identity.UserID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac require any", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if Decide(required, granted) {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, required)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, required []string) {
	if m.Metrics != nil {
		m.Metrics.ObserveDenial(strings.Join(required, ","))
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
}
