package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/scandoc/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/scandoc/internal/api/middlewares"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	app        *App
}

// NewServer builds and wires all routes. An empty addr uses the configured port.
func NewServer(a *App, addr string) *Server {
	cfg := a.Config
	classifyHandler := handlers.NewClassifyHandler(a.Classifier, a.Classifier.Labels())
	scanHandler := handlers.NewScanHandler(a.Scanner, cfg.Scan.TempDir, cfg.Server.MaxUploadMB, a.OCR)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", classifyHandler.Health)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			if cfg.JWTSecret != "" {
				protected.Use(appMiddleware.JWT([]byte(cfg.JWTSecret)))
			} else {
				a.Log.Warn("JWT_SECRET not set; API routes are unauthenticated")
			}
			protected.Post("/classify", classifyHandler.Classify)
			protected.Post("/scan", scanHandler.Scan)
		})
	})

	if addr == "" {
		addr = ":" + strconv.Itoa(cfg.Server.Port)
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv, app: a}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.app.Log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
