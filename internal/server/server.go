// Package server assembles msaada's HTTP request pipeline: middleware
// composition, routing to the static resolver/SPA fallback/POST echo
// handler, the self-test endpoint, and the two-stage shutdown
// supervisor.
package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"msaada/internal/metrics"
	"msaada/internal/policy"
	"msaada/internal/postecho"
	"msaada/internal/staticserve"
)

// Options configures the request pipeline. Most fields mirror a CLI
// flag from spec.md §6 one-to-one.
type Options struct {
	ServerName         string
	Version            string
	RequestLogging     bool
	CORSEnabled        bool
	CompressionEnabled bool
	SelfTestEnabled    bool
}

// Server owns the compiled routing policy, the static resolver, and the
// assembled HTTP handler.
type Server struct {
	logger   *slog.Logger
	policy   *policy.Policy
	resolver *staticserve.Resolver
	opts     Options
	selfTest *selfTestState
}

// New builds a Server over an immutable policy. The policy and the
// resolver built from it are never mutated after this call.
func New(logger *slog.Logger, pol *policy.Policy, opts Options) *Server {
	return &Server{
		logger:   logger,
		policy:   pol,
		resolver: staticserve.NewResolver(pol),
		opts:     opts,
		selfTest: newSelfTestState(),
	}
}

// Handler builds the full middleware-wrapped mux. Routing, per spec.md
// §4.9: POST handler first (highest precedence), then self-test if
// enabled, then the static/SPA default service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /", s.handlePost)
	if s.opts.SelfTestEnabled {
		mux.HandleFunc("GET /self-test", s.handleSelfTest)
		mux.HandleFunc("POST /test-json", s.handlePost)
		mux.HandleFunc("POST /test-form", s.handlePost)
	}
	mux.Handle("GET /metrics", metrics.Handler())
	// "GET /" also matches HEAD requests.
	mux.HandleFunc("GET /", s.handleStatic)

	var h http.Handler = mux
	if s.opts.CompressionEnabled {
		h = withCompression(h)
	}
	if s.opts.CORSEnabled {
		h = withCORS(h)
	}
	h = s.withDefaultHeaders(h)
	h = s.withRequestLogging(h)
	return h
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	resp, status, err := postecho.Handle(r, s.logger)
	if err != nil {
		s.logger.Warn("error reading POST body", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	requestPath := r.URL.Path

	f, fp, err := s.resolver.Resolve(requestPath)
	if err != nil {
		s.handleStaticMiss(w, r, requestPath, err)
		return
	}
	defer f.Close()

	info, statErr := f.Stat()
	if statErr != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	for _, rule := range staticserve.MatchingHeaders(s.policy, requestPath) {
		for _, h := range rule.Headers {
			w.Header().Set(h.Key, h.Value)
		}
	}
	staticserve.ApplyCacheHeaders(w, info, s.policy.Etag)
	// A zero modtime keeps ServeContent from adding Last-Modified
	// alongside the ETag.
	modTime := info.ModTime()
	if s.policy.Etag {
		modTime = time.Time{}
	}
	http.ServeContent(w, r, fp, modTime, f)
}

func (s *Server) handleStaticMiss(w http.ResponseWriter, r *http.Request, requestPath string, err error) {
	switch err.(type) {
	case *staticserve.ForbiddenError:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	spaPath := requestPath
	if s.policy.CleanURLs {
		spaPath = staticserve.ApplyCleanURLs(spaPath)
	}
	spaPath = staticserve.ApplyTrailingSlash(spaPath, s.policy.TrailingSlash)

	if s.policy.RenderSingle && staticserve.ShouldUseSPAFallback(spaPath) {
		f, _, indexErr := s.resolver.Resolve("/index.html")
		if indexErr == nil {
			defer f.Close()
			info, statErr := f.Stat()
			if statErr == nil {
				http.ServeContent(w, r, "index.html", info.ModTime(), f)
				return
			}
		}
		http.Error(w, "index.html not found - required for SPA mode", http.StatusNotFound)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) withDefaultHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.opts.ServerName)
		w.Header().Set("X-Server", s.opts.ServerName+"/"+s.opts.Version)
		w.Header().Set("X-Version", s.opts.Version)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	if !s.opts.RequestLogging {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		reqID := uuid.New().String()
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)
		s.logger.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", sw.status,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		metrics.RecordRequest(r.Method, strconv.Itoa(sw.status), float64(elapsed.Microseconds())/1000.0)
	})
}

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// EffectiveURL formats the effective listen URL for logging and
// clipboard copy, matching 0.0.0.0/:: to "localhost" for display.
func EffectiveURL(https bool, host string, port uint16) string {
	scheme := "http"
	if https {
		scheme = "https"
	}
	displayHost := host
	if host == "0.0.0.0" || host == "::" {
		displayHost = "localhost"
	}
	return scheme + "://" + displayHost + ":" + strconv.Itoa(int(port))
}
