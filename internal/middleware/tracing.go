package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		otelhttp.NewMiddleware(fmt.Sprintf("%s %s", r.Method, r.URL.Path))(next).ServeHTTP(rw, r)
	})
}

// RequestID stamps every request with a correlation id so log lines from
// nested handlers can be tied back to one page action.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		rw.Header().Set("X-Request-Id", id)
		r = r.WithContext(sloger.SetRequestID(r.Context(), id))
		next.ServeHTTP(rw, r)
	})
}
