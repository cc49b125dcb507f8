package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/spendflow/pkg/composables"
)

// WithActor lifts the authenticated principal's id from the given header
// into the request context. The gateway in front of this service performs
// authentication and is trusted to set the header.
func WithActor(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get(header); raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					r = r.WithContext(composables.WithActorID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
