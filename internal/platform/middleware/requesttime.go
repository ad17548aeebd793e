package middleware

import (
	"net/http"
	"time"

	"memoria/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request and
// stores it in the context, so every write within one request carries the
// same timestamp in audit events and domain records.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
