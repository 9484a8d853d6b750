package middleware

import (
	"net/http"

	"github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/pkg/logger"
)

// ActorContext tags the request logger with the authenticated actor. It must
// run after the auth middleware.
func ActorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := internal.ActorFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(),
			"user_id", actor.UserID,
			"company_id", actor.CompanyID,
			"role", actor.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
