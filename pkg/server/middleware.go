package server

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/otherjamesbrown/deskspin/pkg/logging"
)

// corsMiddleware allows read-only cross-origin access from origins. With no
// origins configured, cross-origin requests get no CORS headers.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimitMiddleware limits requests per client IP. A non-positive limit
// disables it.
func rateLimitMiddleware(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

// requestContext copies chi's request id into the logging context and echoes
// it back to the client. It must run after chimiddleware.RequestID.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimiddleware.GetReqID(r.Context())
		if id != "" {
			w.Header().Set("X-Request-ID", id)
			r = r.WithContext(context.WithValue(r.Context(), logging.RequestIDKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug, or warn for 5xx.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := []logging.Field{
				logging.F("method", r.Method),
				logging.F("path", r.URL.Path),
				logging.F("status", ww.Status()),
				logging.F("bytes", ww.BytesWritten()),
				logging.F("duration", time.Since(start)),
			}
			log := logger.WithContext(r.Context())
			if ww.Status() >= http.StatusInternalServerError {
				log.Warn("Request failed", fields...)
				return
			}
			log.Debug("Request", fields...)
		})
	}
}
