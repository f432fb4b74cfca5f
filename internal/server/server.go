// Package server wires the HTTP surface: the JSON API, the live map
// websocket, metrics and the embedded map page.
package server

import (
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/cache"
	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/livemap"
	"github.com/sells-group/storemap/internal/metrics"
)

//go:embed web
var webFS embed.FS

// Options configures a Server.
type Options struct {
	Live           livemap.Settings
	Camera         camera.Options
	Cache          cache.Store
	AllowedOrigins []string
}

// Server serves one immutable dataset.
type Server struct {
	ds      *geodata.Dataset
	options *derive.Options
	camera  camera.Options
	views   *cache.Loader
	live    *livemap.Handler
	origins []string
}

// New creates a Server for ds.
func New(ds *geodata.Dataset, opts Options) *Server {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	live := opts.Live
	live.AllowedOrigins = origins
	return &Server{
		ds:      ds,
		options: derive.NewOptions(ds),
		camera:  opts.Camera,
		views:   cache.NewLoader(opts.Cache),
		live:    livemap.NewHandler(ds, live),
		origins: origins,
	}
}

// Close ends every live map session.
func (s *Server) Close() {
	s.live.Close()
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(countRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/legend", s.handleLegend)
		api.Get("/options", s.handleOptions)
		api.Get("/view", s.handleView)
		api.Get("/stores/{id}", s.handleStore)
		api.Get("/cache", s.handleCacheStats)
	})

	r.Handle("/ws/map", s.live)

	r.Get("/", s.handleIndex)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sum := s.ds.Summary()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"stores":      sum.Stores,
		"dcs":         sum.DCs,
		"regions":     sum.Regions,
		"fingerprint": sum.Fingerprint,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.views.Stats())
}

// countRequests records every request by matched route pattern and status.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
