package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"stayscope/internal/logging"
)

// statusRecorder captures the status code written by a handler so the
// request middleware can label metrics and logs with it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request metrics and a debug log line. The
// endpoint label uses the route template, not the raw path, so run and model
// identifiers do not fan out into new label values.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		endpoint := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				endpoint = template
			}
		}
		elapsed := time.Since(start)
		recordRequest(r.Method, endpoint, recorder.status, elapsed)
		s.logger.Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", recorder.status),
			logging.Duration("duration", elapsed))
	})
}
