package auth

import (
	"net/http"

	"github.com/orchestrix/telemetry-core/internal/core/port"
	"github.com/orchestrix/telemetry-core/pkg/apperror"
)

// TenantMiddleware calls SetTenantContext for RLS in PostgreSQL once
// per request, before the handler runs; the postgres setter's GUC is
// transaction-local, so the handler's own queries do not see it. It
// depends on port.TenantContextSetter rather than a raw *pgxpool.Pool
// so the auth package stays on the hexagonal boundary.
type TenantMiddleware struct {
	setter port.TenantContextSetter
}

// NewTenantMiddleware creates a new tenant middleware over any
// port.TenantContextSetter implementation.
func NewTenantMiddleware(setter port.TenantContextSetter) *TenantMiddleware {
	return &TenantMiddleware{setter: setter}
}

// Handler returns the HTTP middleware handler that sets tenant context for RLS
func (m *TenantMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := GetTenantID(r.Context())
		if tenantID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if err := m.setter.SetTenantContext(r.Context(), tenantID); err != nil {
			writeAuthError(w, apperror.Internal(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}
