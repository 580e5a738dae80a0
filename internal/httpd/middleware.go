package httpd

import (
	"log/slog"
	"net/http"
	"time"
)

// statusWriter captures the status code written so RequestLogger can log
// it after the handler runs.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request: method, path, status, and
// duration.
func RequestLogger(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(c *Ctx) error {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: c.w, status: http.StatusOK}
			c.w = sw

			err := next(c)

			log.Info("request",
				slog.String("method", c.r.Method),
				slog.String("path", c.r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

// Recover turns a panic in a downstream handler into a 500 response and a
// logged error instead of crashing the server.
func Recover(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(c *Ctx) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", slog.Any("panic", rec), slog.String("path", c.r.URL.Path))
					http.Error(c.w, "internal server error", http.StatusInternalServerError)
				}
			}()
			return next(c)
		}
	}
}
