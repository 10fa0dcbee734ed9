// manager.go — HTTP handlers страницы супервизора.
// Info, выдача кода согласования, авторизация, скачивание, audit log.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/errors"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/service"
)

// ManagerHandler — обработчик manager endpoints.
type ManagerHandler struct {
	workflow *service.WorkflowService
}

// NewManagerHandler создаёт обработчик manager endpoints.
func NewManagerHandler(workflow *service.WorkflowService) *ManagerHandler {
	return &ManagerHandler{workflow: workflow}
}

// GetInfo обрабатывает GET /api/v1/manager/reviews/{review_id}/info.
// Сводка ревизии без данных документа; токен не требуется.
func (h *ManagerHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	info, werr := h.workflow.GetReviewInfo(reviewID)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// requestCodeRequest — тело POST /api/v1/manager/reviews/{review_id}/code.
type requestCodeRequest struct {
	SupervisorID string `json:"supervisor_id"`
}

// RequestCode обрабатывает POST /api/v1/manager/reviews/{review_id}/code.
func (h *ManagerHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if req.SupervisorID == "" {
		errors.ValidationError(w, "Поле 'supervisor_id' обязательно")
		return
	}

	result, werr := h.workflow.RequestApprovalCode(reviewID, req.SupervisorID, requestMeta(r))
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// authorizeRequest — тело POST /api/v1/manager/authorize.
type authorizeRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// Authorize обрабатывает POST /api/v1/manager/authorize.
// Успех гасит код согласования и возвращает токен скачивания.
func (h *ManagerHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if req.Code == "" || req.Password == "" {
		errors.ValidationError(w, "Поля 'code' и 'password' обязательны")
		return
	}

	result, werr := h.workflow.Authorize(req.Code, req.Password, requestMeta(r))
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Download обрабатывает GET /api/v1/manager/reviews/{review_id}/download?token=...
// Отдаёт артефакт как attachment; токен гасится после успешного рендеринга.
func (h *ManagerHandler) Download(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")
	token := r.URL.Query().Get("token")
	if token == "" {
		errors.ValidationError(w, "Параметр 'token' обязателен")
		return
	}

	result, werr := h.workflow.Download(reviewID, token, requestMeta(r))
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	http.ServeFile(w, r, result.ArtifactPath)
}

// GetAuditLog обрабатывает GET /api/v1/manager/reviews/{review_id}/audit?token=...
// Просмотр не гасит токен.
func (h *ManagerHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")
	token := r.URL.Query().Get("token")
	if token == "" {
		errors.ValidationError(w, "Параметр 'token' обязателен")
		return
	}

	entries, werr := h.workflow.GetAuditLog(reviewID, token)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"review_id": reviewID,
		"entries":   entries,
		"total":     len(entries),
	})
}

// ListSupervisors обрабатывает GET /api/v1/supervisors.
// Активные супервизоры без секретов.
func (h *ManagerHandler) ListSupervisors(w http.ResponseWriter, r *http.Request) {
	sups := h.workflow.Supervisors()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": sups,
		"total": len(sups),
	})
}
