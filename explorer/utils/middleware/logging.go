package middleware

import (
	"html"
	"net/http"
	"text/template"
	"time"

	"github.com/podlake/explorer/explorer/config"
	"github.com/podlake/explorer/explorer/utils/logger"
	"github.com/valyala/bytebufferpool"
)

// LoggingMiddleware writes one access line per request rendered from tpl.
func LoggingMiddleware(tpl string) func(next http.Handler) http.Handler {
	t := template.Must(template.New("http-logging").Parse(tpl))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_w := &responseWriterWithCode{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(_w, r)
			duration := time.Since(start)
			b := bytebufferpool.Get()
			defer bytebufferpool.Put(b)
			err := t.Execute(b, map[string]any{
				"method":     html.EscapeString(r.Method),
				"url":        html.EscapeString(r.URL.String()),
				"proto":      html.EscapeString(r.Proto),
				"status":     _w.statusCode,
				"length":     _w.length,
				"referer":    html.EscapeString(r.Referer()),
				"user_agent": html.EscapeString(r.UserAgent()),
				"host":       html.EscapeString(r.Host),
				"path":       html.EscapeString(r.URL.Path),
				"user":       html.EscapeString(r.Header.Get(config.Explorer.UserHeader)),
				"latency":    duration.String(),
			})
			if err != nil {
				logger.Error("access log template: ", err)
				return
			}
			logger.Info(b.String())
		})
	}
}

type responseWriterWithCode struct {
	http.ResponseWriter
	statusCode int
	length     int
}

func (w *responseWriterWithCode) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriterWithCode) Write(b []byte) (int, error) {
	w.length += len(b)
	return w.ResponseWriter.Write(b)
}
