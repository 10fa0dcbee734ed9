// metrics.go — Prometheus HTTP метрики review-module.
// Регистрирует метрики: rm_http_requests_total, rm_http_request_duration_seconds.
// Бизнес-метрики (rm_operations_total, rm_reviews_total) регистрируются
// здесь же и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rm_http_requests_total",
			Help: "Общее количество HTTP-запросов к review-module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к review-module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// OperationsTotal — общее количество операций воркфлоу.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rm_operations_total",
			Help: "Общее количество операций воркфлоу согласования",
		},
		[]string{"operation", "result"},
	)

	// ReviewsTotal — текущее количество ревизий по статусам (gauge).
	ReviewsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rm_reviews_total",
			Help: "Текущее количество ревизий по статусам",
		},
		[]string{"status"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем UUID на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет UUID-сегменты пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/reviews/a1b2c3d4-e5f6-7890-abcd-ef1234567890/data → /api/v1/reviews/{id}/data
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if isUUID(seg) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// isUUID проверяет формат UUID: 8-4-4-4-12 hex.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
		} else {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
				return false
			}
		}
	}
	return true
}
