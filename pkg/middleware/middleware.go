// Package middleware provides the HTTP cross-cutting concerns wrapped around
// the engine's routes: request logging, panic recovery and rate limiting.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/docflow/pkg/httputil"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs one line per request with method, path, status and duration.
func Logging(log *observability.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = observability.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"caller":      r.Header.Get("X-User-Email"),
			}).Info("request")
		})
	}
}

// Recover converts handler panics into 500 responses instead of tearing down
// the connection.
func Recover(log *observability.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = observability.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					log.WithFields(map[string]interface{}{
						"panic": p,
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					}).Error("panic in request handler")
					httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
