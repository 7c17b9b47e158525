// Package server exposes the mockup pipeline and template administration over
// HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/config"
	"github.com/xob0t/GoMockup/pkg/mockup"
)

// maxBodyBytes bounds request bodies; designs may embed images as data URIs.
const maxBodyBytes = 32 << 20

type srv struct {
	pipeline *mockup.Pipeline
}

// NewRouter wires the HTTP API around p.
func NewRouter(p *mockup.Pipeline) *chi.Mux {
	s := &srv{pipeline: p}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/mockups/{name}", s.handleMockupFile)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))

		r.Route("/mockups", func(r chi.Router) {
			r.Post("/", s.handleGenerate)
			r.Post("/batch", s.handleBatch)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", s.handleGetTemplate)
				r.Put("/", s.handlePutTemplate)
				r.Delete("/", s.handleDeleteTemplate)
				r.Route("/variations/{variationId}", func(r chi.Router) {
					r.Get("/", s.handleGetTemplate)
					r.Put("/", s.handlePutTemplate)
					r.Delete("/", s.handleDeleteTemplate)
				})
			})
		})

		r.Get("/fonts", s.handleFonts)
		r.Post("/packages", s.handlePackage)
	})

	return r
}

// RunServe builds the pipeline from cfg and serves until SIGINT or SIGTERM.
func RunServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := mockup.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(p),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
