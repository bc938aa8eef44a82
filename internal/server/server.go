// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer. It decides which URL patterns map to
// which handlers, which middleware runs where, and how the server starts
// and stops. It is the composition root: every dependency is created and
// connected in New, nowhere else.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New creates:
//	  sqlite.DB → repositories (users, articles, sessions)
//	            → services (auth, session, article)
//	            → handlers (article, auth, health)
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/handler"
	"github.com/sakif/blog/internal/middleware"
	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/web"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. Start closes it on shutdown;
// callers that never Start (tests) call Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	sessions *service.SessionService
}

// New opens the database, wires every layer and registers the routes.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it isn't confused with the
// modernc.org/sqlite driver.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.sessions = service.NewSessionService(db.Sessions(), db.Users(), tokens, service.SessionConfig{
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
	}, logger)

	// Sessions that ran out while the server was down are of no use to anyone.
	if n, err := s.sessions.PurgeExpired(context.Background()); err != nil {
		db.Close()
		return nil, err
	} else if n > 0 {
		logger.Info("purged expired sessions", slog.Int64("count", n))
	}

	if err := s.setupRoutes(
		service.NewAuthService(db.Users(), passwords, logger),
		service.NewArticleService(db.Articles(), logger),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET       /, /home                → home page
//	GET       /item                   → all articles, newest first
//	GET       /item/{id}              → one article
//	GET|POST  /item/{id}/update       → edit form / save (owner only)
//	POST      /item/{id}/delete       → delete (owner only)
//	GET|POST  /create-article         → form / publish
//	GET       /profile                → own articles (login required)
//	GET|POST  /login, /signup
//	POST      /logout
//	GET       /healthz, /metrics, /static/*
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: tags each request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Recoverer: a panic becomes a 500 instead of a dead connection
//  4. Logger and Metrics: one log line and one sample per request
//  5. LoadIdentity (page routes only): session cookie → model.Identity
func (s *Server) setupRoutes(accounts *service.AuthService, articles *service.ArticleService) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)

	// === Static Files & Probes ===
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	health := handler.NewHealthHandler(s.db, s.logger)
	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// === Pages ===
	render, err := handler.NewRenderer(web.FS, s.logger)
	if err != nil {
		return err
	}
	articleHandler := handler.NewArticleHandler(articles, render, s.logger)
	authHandler := handler.NewAuthHandler(accounts, s.sessions, articles, render, s.config.CookieSecure, s.logger)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.LoadIdentity(s.sessions))

		r.Get("/", articleHandler.HandleIndex)
		r.Get("/home", articleHandler.HandleIndex)

		r.Get("/item", articleHandler.HandleList)
		r.Get("/item/{id}", articleHandler.HandleDetail)
		r.Get("/item/{id}/update", articleHandler.HandleEditForm)
		r.Post("/item/{id}/update", articleHandler.HandleUpdate)
		r.Post("/item/{id}/delete", articleHandler.HandleDelete)

		r.Get("/create-article", articleHandler.HandleCreateForm)
		r.Post("/create-article", articleHandler.HandleCreate)

		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/signup", authHandler.HandleSignupForm)
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/logout", authHandler.HandleLogout)

		r.With(auth.RequireLogin("/login")).Get("/profile", authHandler.HandleProfile)
	})

	return nil
}

// Handler returns the fully wired router, for tests and for embedding the
// blog in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT or SIGTERM, then shuts down
// gracefully:
//  1. Stop accepting new connections
//  2. Wait up to ShutdownTimeout for in-flight requests
//  3. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
