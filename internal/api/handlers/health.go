// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// SchemaLister — интерфейс для проверки доступности каталога схем.
type SchemaLister interface {
	ListDocTypes() ([]string, error)
}

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// dataDir — путь к директории данных (для проверки FS)
	dataDir string
	// artifactsDir — путь к директории артефактов (для проверки FS)
	artifactsDir string
	// schemas — загрузчик схем для проверки каталога схем
	schemas SchemaLister
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(dataDir, artifactsDir string, schemas SchemaLister) *HealthHandler {
	return &HealthHandler{
		version:      config.Version,
		dataDir:      dataDir,
		artifactsDir: artifactsDir,
		schemas:      schemas,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "review-module",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет: директория данных, директория артефактов, каталог схем.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	dataCheck := checkWritableDir(h.dataDir)
	if dataCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	artifactsCheck := checkWritableDir(h.artifactsDir)
	if artifactsCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	schemasCheck := h.checkSchemas()
	if schemasCheck["status"] != "ok" {
		if overallStatus != statusFail {
			overallStatus = "degraded"
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "review-module",
		"checks": map[string]any{
			"data_dir":      dataCheck,
			"artifacts_dir": artifactsCheck,
			"schemas":       schemasCheck,
		},
	})
}

// checkWritableDir проверяет доступность директории на запись.
func checkWritableDir(dir string) map[string]any {
	if dir == "" {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	testFile := filepath.Join(dir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория недоступна для записи: " + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	return map[string]any{
		"status": "ok",
	}
}

// checkSchemas проверяет, что каталог схем читается и не пуст.
func (h *HealthHandler) checkSchemas() map[string]any {
	if h.schemas == nil {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	types, err := h.schemas.ListDocTypes()
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Каталог схем недоступен: " + err.Error(),
		}
	}
	if len(types) == 0 {
		return map[string]any{
			"status":  statusFail,
			"message": "Каталог схем пуст",
		}
	}

	return map[string]any{
		"status":    "ok",
		"doc_types": len(types),
	}
}
