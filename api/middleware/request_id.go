package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/warungdev/lokapos/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags each request with an id that flows through the logger and
// back to the register UI in the response header. An inbound value is kept
// only when it parses as a UUID; anything else is replaced.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
