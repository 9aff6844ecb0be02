package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Middleware = func(http.Handler) http.Handler

// ChainHandlers applies each middleware in order to the base router.
func ChainHandlers(base http.Handler, wrappers ...Middleware) http.Handler {
	h := base
	for _, wrap := range wrappers {
		h = wrap(h)
	}
	return h
}

type durationLogger struct {
	http.ResponseWriter
	statusCode int
}

func (d *durationLogger) WriteHeader(statusCode int) {
	d.statusCode = statusCode
	d.ResponseWriter.WriteHeader(statusCode)
}

// LogDuration log time taken to complete a request.
func LogDuration() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			d := durationLogger{
				ResponseWriter: w,
			}
			next.ServeHTTP(&d, r)
			slog.Debug("Request completed", "method", r.Method, "url", r.RequestURI, "status", d.statusCode, "duration", time.Since(startTime).String())
		})
	}
}

// TrailingSlashStripper allow API calls with trailing "/"
func TrailingSlashStripper() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProblemDetailsBody is the RFC 7807 response body written for transport-level errors.
type ProblemDetailsBody struct {
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// ProblemDetails writes an error message using the application/problem+json header
func ProblemDetails(w http.ResponseWriter, body string, code int) {
	w.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
	w.WriteHeader(code)
	out, _ := json.Marshal(ProblemDetailsBody{
		Detail: body,
		Status: code,
	})
	_, err := fmt.Fprintln(w, string(out))
	if err != nil {
		panic(err)
	}
}
