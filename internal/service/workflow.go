// workflow.go — оркестратор воркфлоу согласования.
//
// Единственная точка, в которой операции внешнего слоя (создание,
// правка, submit, выдача кода, авторизация, скачивание, просмотр
// audit log) собираются из доменных компонентов: state machine
// ревизии, whitelist-валидатора, компоновщика блоков, сервисов
// кодов и токенов и персистентных хранилищ.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	apierrors "github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/errors"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/middleware"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/block"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/reviewstore"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/supervisor"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/validation"
)

// WorkflowError — ошибка операции воркфлоу с HTTP-кодом.
type WorkflowError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RequestMeta — сетевые атрибуты запроса для audit log.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// WorkflowService — оркестратор операций воркфлоу.
type WorkflowService struct {
	reviews     *reviewstore.Store
	approval    *ApprovalService
	tokens      *TokenService
	validator   *validation.Validator
	schemas     *schema.Loader
	supervisors *supervisor.Registry
	renderer    Renderer
	baseURL     string
	logger      *slog.Logger
}

// NewWorkflowService создаёт оркестратор.
func NewWorkflowService(
	reviews *reviewstore.Store,
	approval *ApprovalService,
	tokens *TokenService,
	validator *validation.Validator,
	schemas *schema.Loader,
	supervisors *supervisor.Registry,
	renderer Renderer,
	baseURL string,
	logger *slog.Logger,
) *WorkflowService {
	return &WorkflowService{
		reviews:     reviews,
		approval:    approval,
		tokens:      tokens,
		validator:   validator,
		schemas:     schemas,
		supervisors: supervisors,
		renderer:    renderer,
		baseURL:     baseURL,
		logger:      logger.With(slog.String("component", "workflow")),
	}
}

// CreateResult — результат создания ревизии.
type CreateResult struct {
	ReviewID    string             `json:"review_id"`
	Status      model.ReviewStatus `json:"status"`
	ManagerLink string             `json:"manager_link"`
}

// CreateReview создаёт ревизию в статусе DRAFT.
// Ошибка только при неизвестном типе документа: проблемы начальных
// данных не блокируют создание, они чинятся правками в DRAFT.
func (s *WorkflowService) CreateReview(docType string, initialData map[string]any, createdBy string, meta RequestMeta) (*CreateResult, *WorkflowError) {
	if _, err := s.schemas.Load(docType); err != nil {
		if errors.Is(err, schema.ErrUnknownDocType) {
			middleware.OperationsTotal.WithLabelValues("create", "error").Inc()
			return nil, &WorkflowError{
				StatusCode: http.StatusBadRequest,
				Code:       apierrors.CodeUnknownDocType,
				Message:    fmt.Sprintf("Неизвестный тип документа %q", docType),
			}
		}
		return nil, s.internal("ошибка загрузки схемы", err)
	}

	if result, err := s.validator.ValidateComplete(docType, initialData); err == nil && !result.Valid {
		s.logger.Warn("Начальные данные ревизии неполны",
			slog.String("doc_type", docType),
			slog.Int("errors", len(result.Errors)))
	}

	r := model.NewReview(docType, initialData, createdBy, meta.ClientIP)
	if err := s.reviews.Save(r); err != nil {
		return nil, s.internal("ошибка сохранения ревизии", err)
	}

	middleware.OperationsTotal.WithLabelValues("create", "success").Inc()
	s.updateReviewGauges()

	s.logger.Info("Ревизия создана",
		slog.String("review_id", r.ReviewID),
		slog.String("doc_type", docType),
		slog.String("created_by", createdBy))

	return &CreateResult{
		ReviewID:    r.ReviewID,
		Status:      r.Status,
		ManagerLink: r.ManagerLink(s.baseURL),
	}, nil
}

// DataResult — данные ревизии для формы редактирования.
type DataResult struct {
	Data           map[string]any     `json:"data"`
	EditableFields []string           `json:"editable_fields"`
	CanEdit        bool               `json:"can_edit"`
	Status         model.ReviewStatus `json:"status"`
}

// GetData возвращает данные ревизии и whitelist редактируемых полей.
func (s *WorkflowService) GetData(reviewID string) (*DataResult, *WorkflowError) {
	r, err := s.reviews.Get(reviewID)
	if err != nil {
		return nil, s.notFound(reviewID, err)
	}

	editable, verr := s.validator.EditableFields(r.DocType)
	if verr != nil {
		return nil, s.internal("ошибка загрузки схемы", verr)
	}
	sort.Strings(editable)

	return &DataResult{
		Data:           r.Data,
		EditableFields: editable,
		CanEdit:        r.CanEdit(),
		Status:         r.Status,
	}, nil
}

// UpdateResult — результат частичного обновления данных.
// Принятые, отклонённые и невалидные поля сообщаются одним ответом.
type UpdateResult struct {
	Success        bool                         `json:"success"`
	UpdatedFields  []string                     `json:"updated_fields"`
	RejectedFields []string                     `json:"rejected_fields"`
	Errors         []validation.ValidationError `json:"errors"`
}

// UpdateData применяет whitelist-валидированное обновление к ревизии.
// Цикл validate → mutate → persist идёт под per-review мьютексом.
// Каждое отклонённое whitelist поле оставляет запись
// unauthorized_field_attempt в audit log.
func (s *WorkflowService) UpdateData(reviewID string, changes map[string]any, actor string, meta RequestMeta) (*UpdateResult, *WorkflowError) {
	var result *UpdateResult

	_, err := s.reviews.Mutate(reviewID, func(r *model.Review) error {
		if !r.CanEdit() {
			return &WorkflowError{
				StatusCode: http.StatusForbidden,
				Code:       apierrors.CodeNotEditable,
				Message:    fmt.Sprintf("Ревизия %s в статусе %s не редактируется", reviewID, r.Status),
			}
		}

		vr, verr := s.validator.ValidateUpdate(r.DocType, changes)
		if verr != nil {
			return s.internal("ошибка валидации", verr)
		}

		updated := make([]string, 0, len(vr.Filtered))
		for name := range vr.Filtered {
			updated = append(updated, name)
		}
		sort.Strings(updated)

		for _, name := range updated {
			r.UpdateField(name, vr.Filtered[name], actor, meta.ClientIP)
		}
		for _, name := range vr.Unauthorized {
			r.LogUnauthorizedAttempt(name, changes[name], actor, meta.ClientIP)
			s.logger.Warn("Попытка изменения нередактируемого поля",
				slog.String("review_id", reviewID),
				slog.String("field", name),
				slog.String("actor", actor))
		}

		result = &UpdateResult{
			Success:        vr.Valid,
			UpdatedFields:  updated,
			RejectedFields: vr.Unauthorized,
			Errors:         vr.Errors,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, reviewstore.ErrNotFound) {
			return nil, s.notFound(reviewID, err)
		}
		var werr *WorkflowError
		if errors.As(err, &werr) {
			middleware.OperationsTotal.WithLabelValues("update", "error").Inc()
			return nil, werr
		}
		return nil, s.internal("ошибка обновления ревизии", err)
	}

	middleware.OperationsTotal.WithLabelValues("update", "success").Inc()
	return result, nil
}

// SubmitResult — результат заморозки ревизии.
type SubmitResult struct {
	Status      model.ReviewStatus `json:"status"`
	ManagerLink string             `json:"manager_link"`
}

// Submit замораживает ревизию: DRAFT → SUBMITTED.
// Повторный submit — Conflict, идемпотентность запрещена.
func (s *WorkflowService) Submit(reviewID, actor string, meta RequestMeta) (*SubmitResult, *WorkflowError) {
	var result *SubmitResult

	_, err := s.reviews.Mutate(reviewID, func(r *model.Review) error {
		if !r.Submit(actor, meta.ClientIP) {
			return &WorkflowError{
				StatusCode: http.StatusConflict,
				Code:       apierrors.CodeConflict,
				Message:    fmt.Sprintf("Ревизия %s уже в статусе %s", reviewID, r.Status),
			}
		}
		result = &SubmitResult{
			Status:      r.Status,
			ManagerLink: r.ManagerLink(s.baseURL),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, reviewstore.ErrNotFound) {
			return nil, s.notFound(reviewID, err)
		}
		var werr *WorkflowError
		if errors.As(err, &werr) {
			middleware.OperationsTotal.WithLabelValues("submit", "error").Inc()
			return nil, werr
		}
		return nil, s.internal("ошибка заморозки ревизии", err)
	}

	middleware.OperationsTotal.WithLabelValues("submit", "success").Inc()
	s.updateReviewGauges()

	s.logger.Info("Ревизия заморожена",
		slog.String("review_id", reviewID),
		slog.String("actor", actor))

	return result, nil
}

// CodeResult — результат выдачи кода согласования.
type CodeResult struct {
	Code           string    `json:"code"`
	SupervisorName string    `json:"supervisor_name"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// RequestApprovalCode выдаёт код согласования для замороженной ревизии.
func (s *WorkflowService) RequestApprovalCode(reviewID, supervisorID string, meta RequestMeta) (*CodeResult, *WorkflowError) {
	r, err := s.reviews.Get(reviewID)
	if err != nil {
		return nil, s.notFound(reviewID, err)
	}
	// Код выдаётся только для замороженной ревизии
	if r.Status != model.StatusSubmitted {
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeForbidden,
			Message:    fmt.Sprintf("Код согласования не выдаётся в статусе %s", r.Status),
		}
	}

	sup, serr := s.supervisors.Get(supervisorID)
	if serr != nil {
		return nil, &WorkflowError{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeUnknownSupervisor,
			Message:    fmt.Sprintf("Супервизор %q не найден или неактивен", supervisorID),
		}
	}

	code, cerr := s.approval.CreateCode(reviewID, supervisorID)
	if cerr != nil {
		return nil, s.internal("ошибка выдачи кода согласования", cerr)
	}

	s.appendAudit(reviewID, model.AuditLogEntry{
		Action:    model.ActionCodeCreated,
		Actor:     r.CreatedBy,
		IPAddress: meta.ClientIP,
		Details:   fmt.Sprintf("код согласования выдан супервизору %s", supervisorID),
	})

	middleware.OperationsTotal.WithLabelValues("request_code", "success").Inc()

	return &CodeResult{
		Code:           code.Code,
		SupervisorName: sup.Name,
		ExpiresAt:      code.ExpiresAt,
	}, nil
}

// AuthorizeResult — результат успешной авторизации супервизора.
type AuthorizeResult struct {
	DownloadToken string `json:"download_token"`
	ExpiresIn     int    `json:"expires_in"`
	ReviewID      string `json:"review_id"`
}

// Authorize проверяет пару {код согласования, пароль} и выдаёт токен
// скачивания. Код гасится ровно один раз. Каждый вид отказа оставляет
// свою запись authorize_failed в audit log ревизии.
func (s *WorkflowService) Authorize(code, password string, meta RequestMeta) (*AuthorizeResult, *WorkflowError) {
	record, err := s.approval.ValidateCode(code)
	if err != nil {
		var apiCode string
		var reason string
		switch {
		case errors.Is(err, ErrCodeUsed):
			apiCode, reason = apierrors.CodeCodeUsed, "код уже использован"
		case errors.Is(err, ErrCodeExpired):
			apiCode, reason = apierrors.CodeCodeExpired, "срок действия кода истёк"
		default:
			apiCode, reason = apierrors.CodeInvalidCode, "код не найден"
		}

		// Для погашенных и истёкших кодов ревизия известна
		if rec, ok := s.approval.creds.GetCode(NormalizeCode(code)); ok {
			s.appendAudit(rec.ReviewID, model.AuditLogEntry{
				Action:    model.ActionAuthorizeFailed,
				Actor:     rec.SupervisorID,
				IPAddress: meta.ClientIP,
				Details:   reason,
			})
		}

		s.logger.Warn("Отказ авторизации",
			slog.String("reason", reason),
			slog.String("client_ip", meta.ClientIP))
		middleware.OperationsTotal.WithLabelValues("authorize", "error").Inc()

		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apiCode,
			Message:    "Авторизация отклонена: " + reason,
		}
	}

	ok, perr := s.supervisors.VerifyPassword(record.SupervisorID, password)
	if perr != nil || !ok {
		s.appendAudit(record.ReviewID, model.AuditLogEntry{
			Action:    model.ActionAuthorizeFailed,
			Actor:     record.SupervisorID,
			IPAddress: meta.ClientIP,
			Details:   "неверный пароль",
		})
		middleware.OperationsTotal.WithLabelValues("authorize", "error").Inc()
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeWrongPassword,
			Message:    "Авторизация отклонена: неверный пароль",
		}
	}

	// Гашение атомарно: из конкурентных авторизаций одним кодом
	// выигрывает ровно одна
	if !s.approval.UseCode(code) {
		s.appendAudit(record.ReviewID, model.AuditLogEntry{
			Action:    model.ActionAuthorizeFailed,
			Actor:     record.SupervisorID,
			IPAddress: meta.ClientIP,
			Details:   "код уже использован",
		})
		middleware.OperationsTotal.WithLabelValues("authorize", "error").Inc()
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeCodeUsed,
			Message:    "Авторизация отклонена: код уже использован",
		}
	}

	token, terr := s.tokens.CreateToken(record.ReviewID, record.SupervisorID)
	if terr != nil {
		return nil, s.internal("ошибка выдачи токена скачивания", terr)
	}

	s.appendAudit(record.ReviewID, model.AuditLogEntry{
		Action:    model.ActionAuthorizeSuccess,
		Actor:     record.SupervisorID,
		IPAddress: meta.ClientIP,
		Details:   "авторизация успешна, выдан токен скачивания",
	})
	middleware.OperationsTotal.WithLabelValues("authorize", "success").Inc()

	return &AuthorizeResult{
		DownloadToken: token.Token,
		ExpiresIn:     int(s.tokens.TTL().Seconds()),
		ReviewID:      record.ReviewID,
	}, nil
}

// DownloadResult — артефакт для выдачи клиенту.
type DownloadResult struct {
	ArtifactPath string
	Filename     string
}

// Download выдаёт отрендеренный артефакт по токену скачивания.
//
// Порядок шагов фиксирован: токен сначала проверяется без гашения,
// затем рендерится артефакт, и только после успешного рендеринга
// токен гасится и ревизия помечается DOWNLOADED. Сбой рендеринга
// оставляет токен действительным для повтора.
func (s *WorkflowService) Download(reviewID, token string, meta RequestMeta) (*DownloadResult, *WorkflowError) {
	r, err := s.reviews.Get(reviewID)
	if err != nil {
		return nil, s.notFound(reviewID, err)
	}

	if r.Status != model.StatusSubmitted && r.Status != model.StatusDownloaded {
		s.auditDownloadDenied(reviewID, "", meta, fmt.Sprintf("скачивание недоступно в статусе %s", r.Status))
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeForbidden,
			Message:    fmt.Sprintf("Скачивание недоступно в статусе %s", r.Status),
		}
	}

	record, ok := s.tokens.InspectValid(token, reviewID)
	if !ok {
		s.auditDownloadDenied(reviewID, "", meta, "токен отсутствует, истёк или погашен")
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeInvalidToken,
			Message:    "Токен скачивания недействителен",
		}
	}

	data := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	if sch, serr := s.schemas.Load(r.DocType); serr == nil {
		for name, value := range block.GenerateVariables(sch.Blocks, r.Data) {
			data[name] = value
		}
	}

	artifactPath, filename, rerr := s.renderer.Render(r.DocType, data, reviewID)
	if rerr != nil {
		s.logger.Error("Ошибка рендеринга артефакта",
			slog.String("review_id", reviewID),
			slog.String("error", rerr.Error()))
		middleware.OperationsTotal.WithLabelValues("download", "error").Inc()
		return nil, &WorkflowError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeRenderFailed,
			Message:    "Ошибка рендеринга документа, токен остаётся действительным",
		}
	}

	if !s.tokens.ValidateAndConsume(token, reviewID) {
		s.auditDownloadDenied(reviewID, record.SupervisorID, meta, "токен погашен конкурентным запросом")
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeInvalidToken,
			Message:    "Токен скачивания недействителен",
		}
	}

	if r.Status == model.StatusSubmitted {
		if _, merr := s.reviews.Mutate(reviewID, func(r *model.Review) error {
			r.MarkDownloaded(record.SupervisorID, meta.ClientIP, meta.UserAgent)
			return nil
		}); merr != nil {
			s.logger.Error("Ошибка фиксации скачивания",
				slog.String("review_id", reviewID),
				slog.String("error", merr.Error()))
		}
		s.updateReviewGauges()
	} else {
		// Повторное скачивание по новому токену: статус конечный,
		// фиксируется только запись в audit log
		s.appendAudit(reviewID, model.AuditLogEntry{
			Action:    model.ActionDownload,
			Actor:     record.SupervisorID,
			IPAddress: meta.ClientIP,
			UserAgent: meta.UserAgent,
			Details:   "повторное скачивание",
		})
	}

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()

	s.logger.Info("Документ скачан",
		slog.String("review_id", reviewID),
		slog.String("supervisor_id", record.SupervisorID))

	return &DownloadResult{
		ArtifactPath: artifactPath,
		Filename:     filename,
	}, nil
}

// GetAuditLog возвращает audit log ревизии. Требуется токен,
// привязанный к этой ревизии; просмотр токен не гасит, и уже
// использованный при скачивании токен сохраняет доступ к журналу.
func (s *WorkflowService) GetAuditLog(reviewID, token string) ([]model.AuditLogEntry, *WorkflowError) {
	r, err := s.reviews.Get(reviewID)
	if err != nil {
		return nil, s.notFound(reviewID, err)
	}

	record, ok := s.tokens.Inspect(token)
	if !ok || record.ReviewID != reviewID {
		return nil, &WorkflowError{
			StatusCode: http.StatusForbidden,
			Code:       apierrors.CodeInvalidToken,
			Message:    "Токен скачивания недействителен",
		}
	}

	return r.AuditLog, nil
}

// ReviewInfo — сводка ревизии для страницы супервизора.
type ReviewInfo struct {
	ReviewID     string             `json:"review_id"`
	DocType      string             `json:"doc_type"`
	Status       model.ReviewStatus `json:"status"`
	CreatedBy    string             `json:"created_by"`
	CreatedAt    time.Time          `json:"created_at"`
	SubmittedAt  *time.Time         `json:"submitted_at,omitempty"`
	DownloadedAt *time.Time         `json:"downloaded_at,omitempty"`
	DownloadedBy string             `json:"downloaded_by,omitempty"`
	ManagerLink  string             `json:"manager_link"`
}

// GetReviewInfo возвращает сводку ревизии без данных документа.
func (s *WorkflowService) GetReviewInfo(reviewID string) (*ReviewInfo, *WorkflowError) {
	r, err := s.reviews.Get(reviewID)
	if err != nil {
		return nil, s.notFound(reviewID, err)
	}

	return &ReviewInfo{
		ReviewID:     r.ReviewID,
		DocType:      r.DocType,
		Status:       r.Status,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		SubmittedAt:  r.SubmittedAt,
		DownloadedAt: r.DownloadedAt,
		DownloadedBy: r.DownloadedBy,
		ManagerLink:  r.ManagerLink(s.baseURL),
	}, nil
}

// ListReviews возвращает сводки ревизий, новые первые.
// statusFilter — пустая строка или один из статусов.
func (s *WorkflowService) ListReviews(statusFilter, createdBy string) ([]*ReviewInfo, *WorkflowError) {
	var status model.ReviewStatus
	if statusFilter != "" {
		parsed, err := model.ParseStatus(statusFilter)
		if err != nil {
			return nil, &WorkflowError{
				StatusCode: http.StatusBadRequest,
				Code:       apierrors.CodeValidationError,
				Message:    err.Error(),
			}
		}
		status = parsed
	}

	reviews := s.reviews.List(status, createdBy)
	result := make([]*ReviewInfo, 0, len(reviews))
	for _, r := range reviews {
		result = append(result, &ReviewInfo{
			ReviewID:     r.ReviewID,
			DocType:      r.DocType,
			Status:       r.Status,
			CreatedBy:    r.CreatedBy,
			CreatedAt:    r.CreatedAt,
			SubmittedAt:  r.SubmittedAt,
			DownloadedAt: r.DownloadedAt,
			DownloadedBy: r.DownloadedBy,
			ManagerLink:  r.ManagerLink(s.baseURL),
		})
	}
	return result, nil
}

// GetSchema возвращает схему типа документа в формате для UI.
func (s *WorkflowService) GetSchema(docType string) (map[string]any, *WorkflowError) {
	sch, err := s.schemas.Load(docType)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownDocType) {
			return nil, &WorkflowError{
				StatusCode: http.StatusBadRequest,
				Code:       apierrors.CodeUnknownDocType,
				Message:    fmt.Sprintf("Неизвестный тип документа %q", docType),
			}
		}
		return nil, s.internal("ошибка загрузки схемы", err)
	}
	return sch.ForUI(), nil
}

// Supervisors возвращает активных супервизоров без секретов.
func (s *WorkflowService) Supervisors() []*model.Supervisor {
	return s.supervisors.List()
}

// appendAudit дописывает запись в audit log ревизии.
// Сбой записи логируется, но не прерывает операцию.
func (s *WorkflowService) appendAudit(reviewID string, entry model.AuditLogEntry) {
	if _, err := s.reviews.Mutate(reviewID, func(r *model.Review) error {
		r.AppendAudit(entry)
		return nil
	}); err != nil {
		s.logger.Error("Ошибка записи в audit log",
			slog.String("review_id", reviewID),
			slog.String("action", string(entry.Action)),
			slog.String("error", err.Error()))
	}
}

func (s *WorkflowService) auditDownloadDenied(reviewID, actor string, meta RequestMeta, details string) {
	if actor == "" {
		actor = "manager"
	}
	s.appendAudit(reviewID, model.AuditLogEntry{
		Action:    model.ActionDownloadDenied,
		Actor:     actor,
		IPAddress: meta.ClientIP,
		UserAgent: meta.UserAgent,
		Details:   details,
	})
}

func (s *WorkflowService) updateReviewGauges() {
	for _, status := range []model.ReviewStatus{model.StatusDraft, model.StatusSubmitted, model.StatusDownloaded} {
		middleware.ReviewsTotal.WithLabelValues(string(status)).Set(float64(s.reviews.CountByStatus(status)))
	}
}

func (s *WorkflowService) notFound(reviewID string, err error) *WorkflowError {
	if !errors.Is(err, reviewstore.ErrNotFound) {
		return s.internal("ошибка чтения ревизии", err)
	}
	return &WorkflowError{
		StatusCode: http.StatusNotFound,
		Code:       apierrors.CodeNotFound,
		Message:    fmt.Sprintf("Ревизия %s не найдена", reviewID),
	}
}

func (s *WorkflowService) internal(msg string, err error) *WorkflowError {
	s.logger.Error(msg, slog.String("error", err.Error()))
	return &WorkflowError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeInternalError,
		Message:    "Внутренняя ошибка сервиса",
	}
}
