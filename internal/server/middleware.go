package server

import (
	"net/http"
	"strings"
	"time"

	phuslu "github.com/phuslu/log"
	"github.com/ternarybob/arbor"
)

// accessLogger writes one structured line per request to stdout,
// separate from the application log.
var accessLogger = phuslu.Logger{
	Level:      phuslu.InfoLevel,
	TimeFormat: time.RFC3339,
	Writer: &phuslu.ConsoleWriter{
		ColorOutput:    false,
		QuoteString:    true,
		EndWithMessage: true,
	},
}

// statusRecorder captures the response code for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMiddleware stacks recovery, CORS, and access logging.
// WebSocket upgrades bypass the recorder so hijacking works.
func withMiddleware(next http.Handler, logger arbor.ILogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().
					Str("path", r.URL.Path).
					Str("panic", strings.TrimSpace(strings.ReplaceAll(sprintPanic(rec), "\n", " "))).
					Msg("Recovered from panic in handler")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/ws") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		accessLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func sprintPanic(rec interface{}) string {
	if err, ok := rec.(error); ok {
		return err.Error()
	}
	if s, ok := rec.(string); ok {
		return s
	}
	return "unknown panic"
}
