// Пакет model — доменные модели review-module.
//
// Review — центральная сущность: документ с контролируемым циклом
// согласования DRAFT → SUBMITTED → DOWNLOADED. Переходы монотонные,
// обратных нет. Каждая мутация статуса или данных добавляет ровно
// одну запись в audit log (append-only, порядок вставки).
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus — статус ревизии в жизненном цикле.
type ReviewStatus string

const (
	// StatusDraft — начальный статус, автор может редактировать данные
	StatusDraft ReviewStatus = "DRAFT"
	// StatusSubmitted — заморожена, ожидает скачивания супервизором
	StatusSubmitted ReviewStatus = "SUBMITTED"
	// StatusDownloaded — конечный статус, документ скачан
	StatusDownloaded ReviewStatus = "DOWNLOADED"
)

// validTransitions — матрица допустимых переходов статуса.
// Ключ — текущий статус, значение — набор допустимых целевых статусов.
var validTransitions = map[ReviewStatus]map[ReviewStatus]bool{
	StatusDraft:      {StatusSubmitted: true},
	StatusSubmitted:  {StatusDownloaded: true},
	StatusDownloaded: {}, // Конечный статус — переходы запрещены
}

// CanTransitionTo проверяет, допустим ли переход в указанный статус.
func (s ReviewStatus) CanTransitionTo(target ReviewStatus) bool {
	transitions, ok := validTransitions[s]
	if !ok {
		return false
	}
	return transitions[target]
}

// isValidStatus проверяет, является ли строка допустимым статусом.
func isValidStatus(s ReviewStatus) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusDownloaded:
		return true
	default:
		return false
	}
}

// ParseStatus преобразует строку в ReviewStatus.
// Возвращает ошибку для недопустимых значений.
func ParseStatus(s string) (ReviewStatus, error) {
	st := ReviewStatus(s)
	if !isValidStatus(st) {
		return "", fmt.Errorf("недопустимый статус: %q, допустимые: DRAFT, SUBMITTED, DOWNLOADED", s)
	}
	return st, nil
}

// AuditAction — вид действия в audit log.
type AuditAction string

const (
	ActionCreate            AuditAction = "create"
	ActionFieldUpdate       AuditAction = "field_update"
	ActionUnauthorizedField AuditAction = "unauthorized_field_attempt"
	ActionSubmit            AuditAction = "submit"
	ActionCodeCreated       AuditAction = "approval_code_created"
	ActionAuthorizeFailed   AuditAction = "authorize_failed"
	ActionAuthorizeSuccess  AuditAction = "authorize_success"
	ActionDownload          AuditAction = "download"
	ActionDownloadDenied    AuditAction = "download_denied"
)

// AuditLogEntry — неизменяемая запись audit log.
// Записи только добавляются, никогда не редактируются и не удаляются.
type AuditLogEntry struct {
	// Timestamp — момент действия (UTC)
	Timestamp time.Time `json:"timestamp"`
	// Action — вид действия
	Action AuditAction `json:"action"`
	// Actor — кто выполнил действие (идентификатор автора, супервизора или "manager")
	Actor string `json:"actor"`
	// FieldName — имя поля (для field_update и unauthorized_field_attempt)
	FieldName string `json:"field_name,omitempty"`
	// OldValue — прежнее значение поля
	OldValue any `json:"old_value,omitempty"`
	// NewValue — новое (или попытанное) значение поля
	NewValue any `json:"new_value,omitempty"`
	// IPAddress — сетевой источник запроса
	IPAddress string `json:"ip_address,omitempty"`
	// UserAgent — User-Agent клиента (только для download)
	UserAgent string `json:"user_agent,omitempty"`
	// Details — произвольное текстовое описание
	Details string `json:"details,omitempty"`
}

// Review — документ с контролируемым циклом согласования.
// Соответствует содержимому снапшота <id>.review.json на диске.
type Review struct {
	// ReviewID — уникальный идентификатор (UUID v4)
	ReviewID string `json:"review_id"`

	// DocType — тип документа, выбирает схему и шаблон
	DocType string `json:"doc_type"`

	// Status — текущий статус жизненного цикла
	Status ReviewStatus `json:"status"`

	// Data — данные документа. Мутируется только в статусе DRAFT.
	Data map[string]any `json:"data"`

	// CreatedBy — идентификатор автора
	CreatedBy string `json:"created_by"`

	// CreatedAt — дата и время создания (UTC)
	CreatedAt time.Time `json:"created_at"`

	// AuditLog — встроенный append-only журнал действий
	AuditLog []AuditLogEntry `json:"audit_log"`

	// SubmittedAt — момент заморозки. nil до submit.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// DownloadedAt — момент скачивания. nil до download.
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`

	// DownloadedBy — кто скачал документ
	DownloadedBy string `json:"downloaded_by,omitempty"`
}

// NewReview создаёт новую ревизию в статусе DRAFT
// и добавляет запись "create" в audit log.
func NewReview(docType string, initialData map[string]any, createdBy, ipAddress string) *Review {
	now := time.Now().UTC()
	if initialData == nil {
		initialData = make(map[string]any)
	}

	r := &Review{
		ReviewID:  uuid.New().String(),
		DocType:   docType,
		Status:    StatusDraft,
		Data:      initialData,
		CreatedBy: createdBy,
		CreatedAt: now,
		AuditLog:  make([]AuditLogEntry, 0, 1),
	}

	r.appendAudit(AuditLogEntry{
		Timestamp: now,
		Action:    ActionCreate,
		Actor:     createdBy,
		IPAddress: ipAddress,
		Details:   fmt.Sprintf("ревизия создана, doc_type=%s", docType),
	})

	return r
}

// CanEdit проверяет, можно ли редактировать данные (только DRAFT).
func (r *Review) CanEdit() bool {
	return r.Status == StatusDraft
}

// CanSubmit проверяет, можно ли заморозить ревизию (только DRAFT).
func (r *Review) CanSubmit() bool {
	return r.Status == StatusDraft
}

// CanDownload проверяет, можно ли скачать документ (только SUBMITTED).
func (r *Review) CanDownload() bool {
	return r.Status == StatusSubmitted
}

// UpdateField обновляет одно поле данных с записью в audit log.
// Возвращает false, если ревизия не в статусе DRAFT — данные не изменяются.
func (r *Review) UpdateField(fieldName string, newValue any, actor, ipAddress string) bool {
	if !r.CanEdit() {
		return false
	}

	oldValue := r.Data[fieldName]
	r.Data[fieldName] = newValue

	r.appendAudit(AuditLogEntry{
		Timestamp: time.Now().UTC(),
		Action:    ActionFieldUpdate,
		Actor:     actor,
		FieldName: fieldName,
		OldValue:  oldValue,
		NewValue:  newValue,
		IPAddress: ipAddress,
	})

	return true
}

// LogUnauthorizedAttempt записывает попытку изменения нередактируемого поля.
// Данные не мутируются, запись в audit log добавляется всегда.
func (r *Review) LogUnauthorizedAttempt(fieldName string, attemptedValue any, actor, ipAddress string) {
	r.appendAudit(AuditLogEntry{
		Timestamp: time.Now().UTC(),
		Action:    ActionUnauthorizedField,
		Actor:     actor,
		FieldName: fieldName,
		NewValue:  attemptedValue,
		IPAddress: ipAddress,
		Details:   "попытка изменения нередактируемого поля",
	})
}

// Submit замораживает ревизию: DRAFT → SUBMITTED.
// Возвращает false, если переход недопустим. Повторный submit запрещён.
func (r *Review) Submit(actor, ipAddress string) bool {
	if !r.Status.CanTransitionTo(StatusSubmitted) {
		return false
	}

	now := time.Now().UTC()
	r.Status = StatusSubmitted
	r.SubmittedAt = &now

	r.appendAudit(AuditLogEntry{
		Timestamp: now,
		Action:    ActionSubmit,
		Actor:     actor,
		IPAddress: ipAddress,
		Details:   "ревизия заморожена и отправлена на согласование",
	})

	return true
}

// MarkDownloaded фиксирует скачивание: SUBMITTED → DOWNLOADED (конечный статус).
// Возвращает false, если переход недопустим.
func (r *Review) MarkDownloaded(actor, ipAddress, userAgent string) bool {
	if !r.Status.CanTransitionTo(StatusDownloaded) {
		return false
	}

	now := time.Now().UTC()
	r.Status = StatusDownloaded
	r.DownloadedAt = &now
	r.DownloadedBy = actor

	r.appendAudit(AuditLogEntry{
		Timestamp: now,
		Action:    ActionDownload,
		Actor:     actor,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   "документ скачан",
	})

	return true
}

// AppendAudit добавляет произвольную запись в audit log.
// Используется оркестратором для действий, не меняющих данные
// (выдача кода, попытки авторизации, повторные скачивания).
func (r *Review) AppendAudit(entry AuditLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	r.appendAudit(entry)
}

func (r *Review) appendAudit(entry AuditLogEntry) {
	r.AuditLog = append(r.AuditLog, entry)
}

// ManagerLink возвращает ссылку входа супервизора для скачивания.
func (r *Review) ManagerLink(baseURL string) string {
	return fmt.Sprintf("%s/manager/reviews/%s", baseURL, r.ReviewID)
}

// Clone возвращает глубокую копию ревизии. Хранилище отдаёт наружу
// только копии, чтобы конкурентные читатели не видели чужих мутаций.
func (r *Review) Clone() *Review {
	c := *r

	c.Data = cloneMap(r.Data)

	c.AuditLog = make([]AuditLogEntry, len(r.AuditLog))
	for i, e := range r.AuditLog {
		e.OldValue = cloneValue(e.OldValue)
		e.NewValue = cloneValue(e.NewValue)
		c.AuditLog[i] = e
	}

	if r.SubmittedAt != nil {
		t := *r.SubmittedAt
		c.SubmittedAt = &t
	}
	if r.DownloadedAt != nil {
		t := *r.DownloadedAt
		c.DownloadedAt = &t
	}

	return &c
}

// cloneMap рекурсивно копирует карту данных.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = cloneValue(v)
	}
	return result
}

// cloneValue копирует значение JSON-совместимого типа
// (скаляры неизменяемые, карты и списки копируются рекурсивно).
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = cloneValue(item)
		}
		return result
	default:
		return v
	}
}
