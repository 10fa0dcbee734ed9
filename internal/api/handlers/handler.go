// handler.go — общие вспомогательные функции HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/errors"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/service"
)

// writeJSON вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeWorkflowError транслирует ошибку воркфлоу в стандартный формат API.
func writeWorkflowError(w http.ResponseWriter, werr *service.WorkflowError) {
	apierrors.WriteError(w, werr.StatusCode, werr.Code, werr.Message)
}

// requestMeta извлекает сетевые атрибуты запроса для audit log.
func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// clientIP определяет IP клиента с учётом X-Forwarded-For.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Первый адрес в цепочке — исходный клиент
		if idx := strings.IndexByte(xff, ','); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx > 0 {
		host = host[:idx]
	}
	return host
}
