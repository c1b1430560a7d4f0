package accesslog

import (
	"net/http"
	"time"
)

// recorder captures what the handler wrote
type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// NewMiddleware logs one entry per request. Handlers complete the entry
// through FromContext.
func NewMiddleware(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := NewEntry(r)
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}

			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(WithEntry(r.Context(), entry)))
			entry.Latency = time.Since(start)
			entry.Response = Response{Status: rec.status, Size: rec.size}

			logger.Log(r.Context(), entry)
		})
	}
}
