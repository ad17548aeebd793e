// Package middleware carries the HTTP middleware chain: request identity,
// client metadata, recovery, logging, latency metrics, and authentication.
// Every member seeds or reads pkg/requestcontext so handlers and services
// see one consistent request-scoped view.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"memoria/pkg/requestcontext"
)

// RequestIDHeader is the inbound and outbound correlation header.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation ID. An inbound X-Request-ID
// is trusted if present so callers can stitch logs across services;
// otherwise a fresh one is generated. The ID is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
