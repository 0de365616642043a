package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http/response"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/jwt"
)

// RequireManager gates the privileged routes: manual corrections and
// team-wide reports.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Forbidden(w, "Manager access required")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != jwt.RoleManager {
			response.Forbidden(w, "Manager access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
