package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fixboard/fixboard/internal/logger"
)

// CorrelationIDHeader carries the request correlation ID
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware ensures every request carries a correlation ID
// and places it on the context so engine logs and backend calls can be
// traced to the originating request
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, cid)
		ctx := logger.WithCorrelationID(r.Context(), cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
