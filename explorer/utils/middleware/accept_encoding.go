package middleware

import (
	"compress/gzip"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// AcceptEncodingMiddleware gzips successful responses when the client asks
// for it. Error responses go out uncompressed.
func AcceptEncodingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			gzw := newGzipResponseWriter(w)
			defer gzw.Close()
			next.ServeHTTP(gzw, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer    *gzip.Writer
	code      int
	codeSet   bool
	written   int
	preBuffer *bytebufferpool.ByteBuffer
}

func newGzipResponseWriter(w http.ResponseWriter) *gzipResponseWriter {
	res := &gzipResponseWriter{
		ResponseWriter: w,
		code:           http.StatusOK,
		preBuffer:      bytebufferpool.Get(),
	}
	res.Writer = gzip.NewWriter(res.preBuffer)
	return res
}

func (gzw *gzipResponseWriter) WriteHeader(code int) {
	if gzw.codeSet {
		return
	}
	gzw.codeSet = true
	gzw.code = code
	if gzw.code/100 == 2 {
		gzw.Header().Set("Content-Encoding", "gzip")
	} else {
		gzw.ResponseWriter.WriteHeader(code)
	}
}

func (gzw *gzipResponseWriter) Write(b []byte) (int, error) {
	gzw.codeSet = true
	if gzw.code/100 == 2 {
		gzw.Header().Set("Content-Encoding", "gzip")
		gzw.written += len(b)
		return gzw.Writer.Write(b)
	}
	return gzw.ResponseWriter.Write(b)
}

func (gzw *gzipResponseWriter) Close() {
	defer bytebufferpool.Put(gzw.preBuffer)
	gzw.Writer.Close()
	if gzw.code/100 != 2 {
		return
	}
	gzw.Header().Del("Content-Length")
	gzw.Header().Set("Content-Length", strconv.Itoa(gzw.preBuffer.Len()))
	gzw.ResponseWriter.WriteHeader(gzw.code)
	gzw.ResponseWriter.Write(gzw.preBuffer.Bytes())
}
