// Пакет server — HTTP-сервер review-module с TLS и graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/handlers"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/middleware"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/config"
)

// Server — HTTP-сервер review-module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	reviews *handlers.ReviewsHandler,
	manager *handlers.ManagerHandler,
	health *handlers.HealthHandler,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Операции сотрудника
	router.Route("/api/v1/reviews", func(r chi.Router) {
		r.Post("/", reviews.CreateReview)
		r.Get("/", reviews.ListReviews)
		r.Get("/{review_id}/data", reviews.GetData)
		r.Patch("/{review_id}/data", reviews.UpdateData)
		r.Post("/{review_id}/submit", reviews.Submit)
		r.Get("/{review_id}/status", reviews.GetStatus)
		r.Get("/{review_id}/schema", reviews.GetSchema)
	})

	// Страница супервизора
	router.Route("/api/v1/manager", func(r chi.Router) {
		r.Post("/authorize", manager.Authorize)
		r.Get("/reviews/{review_id}/info", manager.GetInfo)
		r.Post("/reviews/{review_id}/code", manager.RequestCode)
		r.Get("/reviews/{review_id}/download", manager.Download)
		r.Get("/reviews/{review_id}/audit", manager.GetAuditLog)
	})

	router.Get("/api/v1/supervisors", manager.ListSupervisors)

	// Служебные endpoints
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Настройка TLS
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом
// из конфигурации.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.Bool("tls", s.cfg.TLSCert != ""),
		)

		var err error
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
