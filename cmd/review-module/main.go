// Точка входа review-module — модуля контролируемого согласования документов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/handlers"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/middleware"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/config"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/server"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/service"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/credstore"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/reviewstore"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/supervisor"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/validation"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("review-module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("base_url", cfg.BaseURL),
	)

	// --- Инициализация компонентов ---

	// 1. Загрузчик схем с LRU-кэшем
	schemas := schema.NewLoader(cfg.SchemasDir, cfg.SchemaCacheSize, cfg.SchemaCacheTTL, logger)
	docTypes, err := schemas.ListDocTypes()
	if err != nil {
		logger.Error("Каталог схем недоступен", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Схемы документов загружены",
		slog.Int("doc_types", len(docTypes)),
		slog.String("schemas_dir", cfg.SchemasDir),
	)

	// 2. Whitelist-валидатор
	validator := validation.New(schemas, logger)

	// 3. Хранилище ревизий
	reviews := reviewstore.New(filepath.Join(cfg.DataDir, "reviews"), logger)
	if err := reviews.Load(); err != nil {
		logger.Error("Ошибка загрузки хранилища ревизий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище ревизий загружено", slog.Int("reviews", reviews.Count()))
	updateReviewMetrics(reviews)

	// 4. Хранилище кодов и токенов
	creds := credstore.New(cfg.DataDir, logger)
	if err := creds.Load(); err != nil {
		logger.Error("Ошибка загрузки хранилища учётных данных", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Реестр супервизоров
	registry, err := supervisor.Load(cfg.SupervisorsFile, logger)
	if err != nil {
		logger.Error("Ошибка загрузки реестра супервизоров", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Сервисы
	approval := service.NewApprovalService(creds, registry, cfg.ApprovalCodeTTL, logger)
	tokens := service.NewTokenService(creds, cfg.DownloadTokenTTL, logger)
	renderer := service.NewTemplateRenderer(cfg.TemplatesDir, cfg.ArtifactsDir, schemas, logger)
	workflow := service.NewWorkflowService(reviews, approval, tokens, validator, schemas,
		registry, renderer, cfg.BaseURL, logger)

	// 7. Фоновая очистка учётных данных
	ctx := context.Background()
	cleanup := service.NewCleanupService(creds, cfg.CleanupInterval, logger)
	cleanup.Start(ctx)

	// 8. Handlers
	reviewsHandler := handlers.NewReviewsHandler(workflow)
	managerHandler := handlers.NewManagerHandler(workflow)
	healthHandler := handlers.NewHealthHandler(cfg.DataDir, cfg.ArtifactsDir, schemas)

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, reviewsHandler, managerHandler, healthHandler)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	cleanup.Stop()

	logger.Info("review-module остановлен")
}

// updateReviewMetrics обновляет Prometheus метрики ревизий из хранилища.
func updateReviewMetrics(reviews *reviewstore.Store) {
	for _, status := range []model.ReviewStatus{model.StatusDraft, model.StatusSubmitted, model.StatusDownloaded} {
		middleware.ReviewsTotal.WithLabelValues(string(status)).Set(float64(reviews.CountByStatus(status)))
	}
}
