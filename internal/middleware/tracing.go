package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Tracing instruments each request with an otelhttp span named after
// chi's matched route pattern, keeping span names low-cardinality
// ("POST /api/v1/processors/{bankId}/enable", not the concrete path).
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The pattern is only known after chi has matched, so the
			// span name is resolved per request, not at wrap time.
			rctx := chi.RouteContext(r.Context())
			operation := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
			if rctx != nil && rctx.RoutePattern() != "" {
				operation = fmt.Sprintf("%s %s", r.Method, rctx.RoutePattern())
			}
			otelhttp.NewHandler(next, operation).ServeHTTP(w, r)
		})
	}
}
