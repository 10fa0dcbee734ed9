// Пакет errors — конструкторы стандартных ошибок API review-module.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок API.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeUnknownDocType    = "UNKNOWN_DOC_TYPE"
	CodeNotFound          = "NOT_FOUND"
	CodeUnknownSupervisor = "UNKNOWN_SUPERVISOR"
	CodeForbidden         = "FORBIDDEN"
	CodeNotEditable       = "NOT_EDITABLE"
	CodeConflict          = "CONFLICT"
	CodeInvalidCode       = "INVALID_CODE"
	CodeCodeExpired       = "CODE_EXPIRED"
	CodeCodeUsed          = "CODE_USED"
	CodeWrongPassword     = "WRONG_PASSWORD"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeRenderFailed      = "RENDER_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// UnknownDocType — 400 тип документа не имеет схемы.
func UnknownDocType(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeUnknownDocType, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// UnknownSupervisor — 404 супервизор не найден или неактивен.
func UnknownSupervisor(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeUnknownSupervisor, message)
}

// Forbidden — 403 статус или учётные данные запрещают операцию.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// NotEditable — 403 ревизия не в статусе DRAFT.
func NotEditable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeNotEditable, message)
}

// Conflict — 409 переход нарушает монотонность статусов.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
