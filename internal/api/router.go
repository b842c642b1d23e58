package api

import (
	"net/http"
	"strings"

	"pdf-coview/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteOptions controls the file-serving routes.
type RouteOptions struct {
	// UploadDir is served at UploadURLPrefix when the disk backend is used.
	// Empty disables the route.
	UploadDir       string
	UploadURLPrefix string

	// StaticDir is served at / when set.
	StaticDir string
}

func SetupRoutes(h *Handler, opts RouteOptions) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", h.UploadDocument).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/ws", h.HandleWebSocket)

	if opts.UploadDir != "" {
		prefix := strings.TrimSuffix(opts.UploadURLPrefix, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(opts.UploadDir))))
	}

	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
