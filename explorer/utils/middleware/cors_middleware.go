package middleware

import (
	"net/http"
	"strings"
)

func CorsMiddleware(allowOrigin string, extraHeaders ...string) func(handler http.Handler) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	headers := strings.Join(append([]string{
		"Origin", "Content-Type", "Accept", "Content-Length", "Accept-Language", "Accept-Encoding",
		"Connection", "Access-Control-Allow-Origin",
	}, extraHeaders...), ",")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if request.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, request)
		})
	}
}
