package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// withCORS adds permissive CORS headers and answers preflight requests,
// per spec.md §4.9: present only when --cors is set.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withCompression negotiates gzip or brotli per the request's
// Accept-Encoding header, present only when compression is enabled
// (spec.md §9 requires conditional, not unconditional, compression).
func withCompression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch preferredEncoding(r.Header.Get("Accept-Encoding")) {
		case "br":
			bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
			defer bw.Close()
			w.Header().Set("Content-Encoding", "br")
			w.Header().Del("Content-Length")
			next.ServeHTTP(&compressingWriter{ResponseWriter: w, writer: bw}, r)
		case "gzip":
			gw, _ := gzip.NewWriterLevel(w, gzip.DefaultCompression)
			defer gw.Close()
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Del("Content-Length")
			next.ServeHTTP(&compressingWriter{ResponseWriter: w, writer: gw}, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// preferredEncoding picks brotli over gzip when both are accepted,
// honoring simple q=0 exclusions; anything else falls through
// uncompressed.
func preferredEncoding(acceptEncoding string) string {
	if acceptEncoding == "" {
		return ""
	}
	has := func(name string) bool {
		for _, tok := range strings.Split(acceptEncoding, ",") {
			tok = strings.TrimSpace(tok)
			if tok == name {
				return true
			}
			if strings.HasPrefix(tok, name+";") {
				param := strings.TrimSpace(strings.TrimPrefix(tok, name+";"))
				if v, ok := strings.CutPrefix(param, "q="); ok {
					if q, err := strconv.ParseFloat(v, 64); err == nil && q == 0 {
						continue
					}
				}
				return true
			}
		}
		return false
	}
	switch {
	case has("br"):
		return "br"
	case has("gzip"):
		return "gzip"
	default:
		return ""
	}
}

type compressingWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (w *compressingWriter) WriteHeader(status int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressingWriter) Write(b []byte) (int, error) {
	w.Header().Del("Content-Length")
	return w.writer.Write(b)
}
