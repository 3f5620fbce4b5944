package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id between hops.
	RequestIDHeader = "X-Request-ID"

	// RequestIDContextKey stores the request id in the request context.
	RequestIDContextKey contextKey = "request_id"
)

// RequestID tags every request with an id so a checkout can be traced from
// the payment session call through the webhook logs. An id already present
// on the X-Request-ID header (set by a proxy or the storefront) is kept;
// otherwise a fresh UUID is issued. The id is echoed on the response and
// stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id from the context, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}
