// approval.go — сервис кодов согласования.
//
// Код согласования — короткий (8 символов, заглавные буквы и цифры)
// одноразовый секрет с ограниченным сроком действия, привязанный
// к паре {ревизия, супервизор}. Читаемый формат выбран намеренно:
// код передаётся между автором и супервизором вне системы (голосом,
// в чате), а сниженную энтропию компенсируют проверка пароля и TTL.
package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/credstore"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/supervisor"
)

// Алфавит и длина кода согласования.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// maxCodeAttempts — предел перегенераций при коллизии кода.
const maxCodeAttempts = 10

// Ошибки валидации кода согласования.
var (
	ErrCodeNotFound = errors.New("код согласования не найден")
	ErrCodeUsed     = errors.New("код согласования уже использован")
	ErrCodeExpired  = errors.New("срок действия кода согласования истёк")
)

// ApprovalService — выдача и валидация кодов согласования.
type ApprovalService struct {
	creds       *credstore.Store
	supervisors *supervisor.Registry
	ttl         time.Duration
	logger      *slog.Logger
}

// NewApprovalService создаёт сервис кодов согласования.
// ttl — срок действия кода с момента выдачи.
func NewApprovalService(
	creds *credstore.Store,
	supervisors *supervisor.Registry,
	ttl time.Duration,
	logger *slog.Logger,
) *ApprovalService {
	return &ApprovalService{
		creds:       creds,
		supervisors: supervisors,
		ttl:         ttl,
		logger:      logger.With(slog.String("component", "approval_service")),
	}
}

// CreateCode выдаёт новый код согласования для пары {ревизия, супервизор}.
// Супервизор должен существовать и быть активным. Код уникален среди
// хранимых: при коллизии генерация повторяется.
func (s *ApprovalService) CreateCode(reviewID, supervisorID string) (*model.ApprovalCode, error) {
	sup, err := s.supervisors.Get(supervisorID)
	if err != nil {
		return nil, err
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &model.ApprovalCode{
		Code:         code,
		ReviewID:     reviewID,
		SupervisorID: sup.ID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.creds.PutCode(record); err != nil {
		return nil, fmt.Errorf("ошибка сохранения кода согласования: %w", err)
	}

	s.logger.Info("Код согласования выдан",
		slog.String("review_id", reviewID),
		slog.String("supervisor_id", sup.ID),
		slog.Time("expires_at", record.ExpiresAt))

	return record, nil
}

// ValidateCode проверяет код без гашения. Ввод нормализуется:
// пробелы по краям срезаются, буквы приводятся к верхнему регистру.
// Возвращает ErrCodeNotFound, ErrCodeUsed или ErrCodeExpired.
func (s *ApprovalService) ValidateCode(code string) (*model.ApprovalCode, error) {
	normalized := NormalizeCode(code)

	record, ok := s.creds.GetCode(normalized)
	if !ok {
		return nil, ErrCodeNotFound
	}
	if record.Used {
		return nil, ErrCodeUsed
	}
	if record.IsExpired(time.Now().UTC()) {
		return nil, ErrCodeExpired
	}
	return record, nil
}

// UseCode гасит код. Возвращает true не более одного раза для
// каждого кода: проверка и установка флага атомарны в credstore.
func (s *ApprovalService) UseCode(code string) bool {
	return s.creds.UseCode(NormalizeCode(code), time.Now().UTC())
}

// NormalizeCode приводит пользовательский ввод кода к каноническому виду.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateUniqueCode генерирует код, отсутствующий в хранилище.
func (s *ApprovalService) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if !s.creds.CodeExists(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("не удалось сгенерировать уникальный код за %d попыток", maxCodeAttempts)
}

// randomCode генерирует код из codeAlphabet через crypto/rand.
func randomCode() (string, error) {
	var b strings.Builder
	b.Grow(codeLength)
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))

	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("ошибка генерации случайного кода: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
