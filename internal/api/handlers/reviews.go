// reviews.go — HTTP handlers операций сотрудника над ревизиями.
// Create, List, Get data, Update data, Submit, Status, Schema.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/errors"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/service"
)

// ReviewsHandler — обработчик endpoints сотрудника.
type ReviewsHandler struct {
	workflow *service.WorkflowService
}

// NewReviewsHandler создаёт обработчик endpoints сотрудника.
func NewReviewsHandler(workflow *service.WorkflowService) *ReviewsHandler {
	return &ReviewsHandler{workflow: workflow}
}

// createReviewRequest — тело POST /api/v1/reviews.
type createReviewRequest struct {
	DocType     string         `json:"doc_type"`
	InitialData map[string]any `json:"initial_data"`
	CreatedBy   string         `json:"created_by"`
}

// CreateReview обрабатывает POST /api/v1/reviews.
func (h *ReviewsHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if req.DocType == "" {
		errors.ValidationError(w, "Поле 'doc_type' обязательно")
		return
	}
	if req.CreatedBy == "" {
		errors.ValidationError(w, "Поле 'created_by' обязательно")
		return
	}

	result, werr := h.workflow.CreateReview(req.DocType, req.InitialData, req.CreatedBy, requestMeta(r))
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListReviews обрабатывает GET /api/v1/reviews.
// Фильтры: status, created_by.
func (h *ReviewsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	createdBy := r.URL.Query().Get("created_by")

	items, werr := h.workflow.ListReviews(status, createdBy)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

// GetData обрабатывает GET /api/v1/reviews/{review_id}/data.
func (h *ReviewsHandler) GetData(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	result, werr := h.workflow.GetData(reviewID)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// updateDataRequest — тело PATCH /api/v1/reviews/{review_id}/data.
type updateDataRequest struct {
	Data  map[string]any `json:"data"`
	Actor string         `json:"actor"`
}

// UpdateData обрабатывает PATCH /api/v1/reviews/{review_id}/data.
// Ответ перечисляет принятые и отклонённые поля вместе.
func (h *ReviewsHandler) UpdateData(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	var req updateDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if len(req.Data) == 0 {
		errors.ValidationError(w, "Поле 'data' не должно быть пустым")
		return
	}

	result, werr := h.workflow.UpdateData(reviewID, req.Data, req.Actor, requestMeta(r))
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// submitRequest — тело POST /api/v1/reviews/{review_id}/submit.
type submitRequest struct {
	Actor string `json:"actor"`
}

// Submit обрабатывает POST /api/v1/reviews/{review_id}/submit.
func (h *ReviewsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	var req submitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
			return
		}
	}

	result, werr := h.workflow.Submit(reviewID, req.Actor, requestMeta(r))
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetStatus обрабатывает GET /api/v1/reviews/{review_id}/status.
func (h *ReviewsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	info, werr := h.workflow.GetReviewInfo(reviewID)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// GetSchema обрабатывает GET /api/v1/reviews/{review_id}/schema.
// Возвращает схему типа документа ревизии в формате для UI.
func (h *ReviewsHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "review_id")

	info, werr := h.workflow.GetReviewInfo(reviewID)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	ui, werr := h.workflow.GetSchema(info.DocType)
	if werr != nil {
		writeWorkflowError(w, werr)
		return
	}

	writeJSON(w, http.StatusOK, ui)
}
