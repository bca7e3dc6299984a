// Package devserver is an in-memory stand-in for the hosted gacha
// storage service. It exists for local development and for exercising
// the client against a real HTTP surface. State lives only for the
// process lifetime, and image uploads are recorded but never stored.
package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gashapon-labs/cardstock/internal/version"
)

// Config holds the development server settings.
type Config struct {
	Port              int
	DefaultCollection string
}

// DefaultConfig matches the hosted service's local defaults, so a
// client built from its own DefaultConfig finds this server.
func DefaultConfig() *Config {
	return &Config{
		Port:              8000,
		DefaultCollection: "cards",
	}
}

// Server serves the storage wire contract from an Inventory.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	inventory  *Inventory
	port       int
	logger     *slog.Logger
}

// NewServer creates a development server around the given inventory.
// A nil inventory gets a fresh empty one.
func NewServer(cfg *Config, inv *Inventory, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if inv == nil {
		inv = NewInventory(cfg.DefaultCollection)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:    chi.NewRouter(),
		inventory: inv,
		port:      cfg.Port,
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	// Request ID for tracing
	s.router.Use(middleware.RequestID)

	// Real IP detection
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(middleware.Logger)

	// Panic recovery
	s.router.Use(middleware.Recoverer)

	// Request timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Content-Type enforcement for methods that carry bodies
	s.router.Use(contentTypeMiddleware)
}

// contentTypeMiddleware rejects request bodies the storage contract
// never uses. Uploads and pack creation arrive as forms, everything
// else as JSON.
func contentTypeMiddleware(next http.Handler) http.Handler {
	allowed := []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength != 0 {
				contentType := r.Header.Get("Content-Type")
				ok := false
				for _, prefix := range allowed {
					if strings.HasPrefix(contentType, prefix) {
						ok = true
						break
					}
				}
				if !ok {
					writeDetail(w, http.StatusUnsupportedMediaType,
						fmt.Sprintf("Unsupported Content-Type '%s'", contentType))
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// setupRoutes wires the storage and pack surfaces.
func (s *Server) setupRoutes() {
	s.router.Route("/storage", func(r chi.Router) {
		r.Get("/cards", s.handleListCards)
		r.Patch("/cards/{documentID}/quantity", s.handleAdjustQuantity)
		r.Put("/cards/{documentID}", s.handleUpdateCard)
		r.Delete("/cards/{documentID}", s.handleDeleteCard)
		r.Post("/upload_card", s.handleUploadCard)

		r.Route("/collection-metadata", func(r chi.Router) {
			r.Get("/", s.handleListCollections)
			r.Post("/", s.handleCreateCollection)
			r.Get("/{collectionName}", s.handleGetCollection)
		})
	})

	s.router.Route("/packs", func(r chi.Router) {
		r.Get("/packs_collection", s.handleListPacks)
		r.Post("/", s.handleCreatePack)
		r.Get("/{packID}", s.handleGetPack)
		r.Get("/{collectionID}/{packID}/cards", s.handlePackCards)
		r.Patch("/{collectionID}/{packID}/activate", s.handleActivatePack)
		r.Patch("/{collectionID}/{packID}/inactivate", s.handleInactivatePack)
	})

	s.router.Get("/version", s.handleVersion)
}

// handleVersion reports the running build.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.GetVersion(),
		"service": "cardstock-dev-storage",
	})
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info("dev storage server starting", "port", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("dev storage server failed", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Inventory returns the backing store, mainly for seeding.
func (s *Server) Inventory() *Inventory {
	return s.inventory
}
