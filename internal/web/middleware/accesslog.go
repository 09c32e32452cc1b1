package middleware

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/requestlog"
)

// AccessLogConfig holds access log settings.
type AccessLogConfig struct {
	Writer io.Writer
	// ExemptPrefix skips logging for long-lived streams, whose status line
	// would only be printed when the client goes away.
	ExemptPrefix string
}

// .Path carries the full request line target, see requestLine.
const accessLogFormat = `{{ if .Timestamp }}[{{ .Timestamp }}] {{end}}` +
	`"{{ .Method }} {{ .Path }}" {{ .Code }} ` +
	`{{ .Duration }}{{ if .Size }} {{ .Size }}{{end}}` +
	`{{ if .IP }} ({{ .IP }}){{end}}` + "\n"

type originalRequestKey struct{}

// AccessLog returns middleware that writes one line per completed request.
func AccessLog(cfg AccessLogConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		restore := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, originalRequest(r))
		})
		logged := requestlog.WrapWith(restore, requestlog.Options{
			Writer:     cfg.Writer,
			Format:     accessLogFormat,
			TimeFormat: "02/Jan/2006 15:04:05",
			Filter: func(r *http.Request, _ int, _ time.Duration, _ int64) bool {
				return cfg.ExemptPrefix == "" || !strings.HasPrefix(originalRequest(r).URL.Path, cfg.ExemptPrefix)
			},
		})
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logged.ServeHTTP(w, requestLine(r))
		})
	}
}

// requestLine returns a shallow copy of r whose URL path reads as the
// request line target and protocol, e.g. "/app.js?v=3 HTTP/1.1". The
// original request travels in the context and is handed back to the next
// handler untouched.
func requestLine(r *http.Request) *http.Request {
	lr := r.WithContext(context.WithValue(r.Context(), originalRequestKey{}, r))
	u := *r.URL
	u.Path = r.URL.RequestURI() + " " + r.Proto
	u.RawPath = ""
	u.RawQuery = ""
	lr.URL = &u
	return lr
}

func originalRequest(r *http.Request) *http.Request {
	if orig, ok := r.Context().Value(originalRequestKey{}).(*http.Request); ok {
		return orig
	}
	return r
}
