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
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/auth"
	"resolutionengine/src/engine"
	"resolutionengine/src/handler"
	"resolutionengine/src/notifier"
)

// NewRouter mounts the engine's HTTP surface.
func NewRouter(e *engine.Engine, hub *notifier.Hub, tokenHash string) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck write error")
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireToken(tokenHash))

		r.Post("/exceptions", handler.ReportExceptionHandler(e))
		r.Get("/exceptions/{id}", handler.GetExceptionHandler(e))
		r.Get("/status", handler.StatusHandler(e))
		r.Get("/escalations", handler.EscalationsHandler(e))
	})

	if hub != nil {
		r.Get("/ws/escalations", handler.EscalationFeedHandler(hub))
	}

	return r
}

// StartServer serves the router and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func StartServer(port string, e *engine.Engine, hub *notifier.Hub) {
	tokenHash := auth.GetConfig().APITokenHash
	r := NewRouter(e, hub, tokenHash)

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}

	e.Stop()
}
