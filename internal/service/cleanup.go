// cleanup.go — сервис фоновой очистки эфемерных учётных данных.
//
// Очистка удаляет истёкшие непогашенные коды согласования и истёкшие
// либо погашенные токены скачивания. Погашенные коды остаются как
// след согласования. Запускается как горутина с периодическим
// тикером (RM_CLEANUP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/credstore"
)

// Prometheus метрики очистки
var (
	// cleanupRunsTotal — количество запусков очистки.
	cleanupRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_cleanup_runs_total",
		Help: "Общее количество запусков очистки учётных данных",
	})

	// cleanupCodesRemovedTotal — количество удалённых кодов согласования.
	cleanupCodesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_cleanup_codes_removed_total",
		Help: "Общее количество удалённых очисткой кодов согласования",
	})

	// cleanupTokensRemovedTotal — количество удалённых токенов скачивания.
	cleanupTokensRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_cleanup_tokens_removed_total",
		Help: "Общее количество удалённых очисткой токенов скачивания",
	})

	// cleanupDurationSeconds — длительность выполнения очистки.
	cleanupDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rm_cleanup_duration_seconds",
		Help:    "Длительность выполнения очистки в секундах",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// CleanupResult — результат одного запуска очистки.
type CleanupResult struct {
	// CodesRemoved — количество удалённых кодов согласования
	CodesRemoved int
	// TokensRemoved — количество удалённых токенов скачивания
	TokensRemoved int
	// Duration — длительность выполнения
	Duration time.Duration
}

// CleanupService — сервис фоновой очистки учётных данных.
type CleanupService struct {
	creds    *credstore.Store
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // защита от параллельного запуска RunOnce
	running bool       // флаг работы фонового процесса
	cancel  context.CancelFunc
}

// NewCleanupService создаёт сервис очистки.
func NewCleanupService(creds *credstore.Store, interval time.Duration, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		creds:    creds,
		interval: interval,
		logger:   logger.With(slog.String("component", "cleanup")),
	}
}

// Start запускает фоновую горутину очистки с периодическим тикером.
// Вызывается один раз при старте приложения.
func (c *CleanupService) Start(ctx context.Context) {
	cleanupCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	go c.run(cleanupCtx)

	c.logger.Info("Очистка учётных данных запущена",
		slog.String("interval", c.interval.String()),
	)
}

// Stop останавливает фоновый процесс очистки.
func (c *CleanupService) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.running = false
	c.logger.Info("Очистка учётных данных остановлена")
}

// run — основной цикл фоновой горутины.
func (c *CleanupService) run(ctx context.Context) {
	// Первый запуск — сразу после старта
	c.RunOnce()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce()
		}
	}
}

// RunOnce выполняет один цикл очистки.
// Потокобезопасен: использует mutex для защиты от параллельного запуска.
func (c *CleanupService) RunOnce() *CleanupResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()

	codesRemoved, tokensRemoved := c.creds.CleanupExpired(time.Now().UTC())

	result := &CleanupResult{
		CodesRemoved:  codesRemoved,
		TokensRemoved: tokensRemoved,
		Duration:      time.Since(start),
	}

	cleanupRunsTotal.Inc()
	cleanupCodesRemovedTotal.Add(float64(codesRemoved))
	cleanupTokensRemovedTotal.Add(float64(tokensRemoved))
	cleanupDurationSeconds.Observe(result.Duration.Seconds())

	c.logger.Info("Очистка завершена",
		slog.Int("codes_removed", result.CodesRemoved),
		slog.Int("tokens_removed", result.TokensRemoved),
		slog.Duration("duration", result.Duration),
	)

	return result
}
