package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr      string
	authToken string
	maxUpload int64
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithAuthToken requires every API request to carry this bearer token
func WithAuthToken(token string) Option {
	return func(c *config) {
		c.authToken = token
	}
}

// WithMaxUploadSize limits the size of an uploaded artifact request in bytes
func WithMaxUploadSize(size int64) Option {
	return func(c *config) {
		c.maxUpload = size
	}
}

// Server represents the release API emulator
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server emulating the release API
func NewServer(
	ctx context.Context,
	repo interfaces.ReleaseRepository,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:      "localhost:8080",
		maxUpload: 64 << 20,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Release API
	h := NewReleaseHandler(repo, cfg.maxUpload)
	router.Route("/api/0", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.authToken))
		r.Post("/organizations/{org}/releases/", h.CreateRelease)
		r.Put("/projects/{org}/{project}/releases/{release}/", h.UpdateRelease)
		r.Post("/projects/{org}/{project}/releases/{release}/files/", h.UploadFile)
		r.Get("/projects/{org}/{project}/releases/{release}/files/", h.ListFiles)
		r.Delete("/projects/{org}/{project}/files/source-maps/", h.DeleteArtifacts)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
