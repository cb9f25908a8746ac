package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/iho/erpledger/internal/domain"
)

// RequestInfo stores the client address, user agent and request id in the
// context so audit logs can record them.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := domain.ContextWithRequestInfo(r.Context(), domain.RequestInfo{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
