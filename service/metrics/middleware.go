package metrics

import (
	"net/http"
	"time"
)

// HTTPMetricsMiddleware records request counts and latencies for every
// request passing through the wrapped handler. The handler label is the
// matched route pattern when the mux provides one, falling back to name.
func HTTPMetricsMiddleware(m *Metrics, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Status defaults to 200 because handlers that never call
			// WriteHeader still respond 200.
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if m == nil {
				return
			}
			handler := name
			if r.Pattern != "" {
				handler = r.Pattern
			}
			m.RecordHTTPRequest(handler, r.Method, sw.status, time.Since(start).Seconds())
		})
	}
}

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
