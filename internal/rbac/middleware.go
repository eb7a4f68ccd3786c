package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the current user holds the capability before the handler runs.
func (m Middleware) Require(panel, module string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			allowed, err := m.Service.Check(r.Context(), identity, panel, module, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac check", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireForMethod derives the capability verb from the HTTP method and then
// behaves like Require. Unknown methods are treated as reads.
func (m Middleware) RequireForMethod(panel, module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action := ActionRead
			switch r.Method {
			case http.MethodPost:
				action = ActionCreate
			case http.MethodPut, http.MethodPatch:
				action = ActionUpdate
			case http.MethodDelete:
				action = ActionDelete
			}
			m.Require(panel, module, action)(next).ServeHTTP(w, r)
		})
	}
}
