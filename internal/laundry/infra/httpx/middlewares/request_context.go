package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/laundry-intake/internal/pkg/constants"
)

// AttachRequestID copies chi's request ID into the context key read by the
// log handler and echoes it back as a response header.
func AttachRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := middleware.GetReqID(r.Context())
		if requestId != "" {
			w.Header().Set(constants.HeaderXRequestId, requestId)
		}

		ctx := constants.WithRequestID(r.Context(), requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
