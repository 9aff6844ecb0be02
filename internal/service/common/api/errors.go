package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/skywatch-aero/alertmirror/internal/service/common/api/middleware"
)

// ErrorJsonifier serves a wrapped http.ServeMux while rewriting the mux's built-in plain text
// error responses (the 404 and 405 it produces itself for unmatched routes) into problem+json.
// The mux offers no way to customize those responses, so they are intercepted at the
// ResponseWriter level instead.
//
// see: https://github.com/golang/go/issues/65648
type ErrorJsonifier struct {
	mux *http.ServeMux
}

// NewErrorJsonifier creates a new instance of an ErrorJsonifier
func NewErrorJsonifier(mux *http.ServeMux) *ErrorJsonifier {
	return &ErrorJsonifier{mux: mux}
}

// ServeHTTP delegates to the wrapped mux with a ResponseWriter that rewrites plain text errors.
func (e *ErrorJsonifier) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	e.mux.ServeHTTP(&errorRewriter{inner: writer}, request)
}

// errorRewriter watches the response headers as they are committed.  A text/plain content type at
// WriteHeader time can only be one of the mux's own error messages, since every handler in this
// server writes JSON; the content type is swapped for problem+json and the body reshaped once
// Write delivers the error text.
type errorRewriter struct {
	inner   http.ResponseWriter
	status  int
	rewrite bool
}

func (e *errorRewriter) Header() http.Header {
	return e.inner.Header()
}

func (e *errorRewriter) WriteHeader(status int) {
	if strings.Contains(e.inner.Header().Get("Content-Type"), "text/plain") {
		e.inner.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
		e.rewrite = true
	}
	e.status = status
	e.inner.WriteHeader(status)
}

func (e *errorRewriter) Write(data []byte) (int, error) {
	if !e.rewrite {
		return e.inner.Write(data) //nolint:wrapcheck
	}

	body, _ := json.Marshal(middleware.ProblemDetailsBody{
		Detail: strings.TrimSpace(string(data)),
		Status: e.status,
	})
	return e.inner.Write(body) //nolint:wrapcheck
}
