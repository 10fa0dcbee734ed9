// token.go — сервис токенов скачивания.
//
// Токен скачивания — непрозрачная криптослучайная строка с коротким
// сроком действия, выдаваемая только после успешной авторизации
// супервизора. Гасится ровно один раз при скачивании; предпросмотр
// и чтение audit log используют Inspect без гашения.
package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/credstore"
)

// tokenBytes — размер случайной части токена до кодирования.
const tokenBytes = 32

// TokenService — выдача и гашение токенов скачивания.
type TokenService struct {
	creds  *credstore.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewTokenService создаёт сервис токенов скачивания.
// ttl — срок действия токена с момента выдачи.
func NewTokenService(creds *credstore.Store, ttl time.Duration, logger *slog.Logger) *TokenService {
	return &TokenService{
		creds:  creds,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "token_service")),
	}
}

// TTL возвращает настроенный срок действия токенов.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// CreateToken выдаёт токен скачивания для ревизии.
func (s *TokenService) CreateToken(reviewID, supervisorID string) (*model.DownloadToken, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("ошибка генерации токена: %w", err)
	}

	now := time.Now().UTC()
	token := &model.DownloadToken{
		Token:        base64.RawURLEncoding.EncodeToString(raw),
		ReviewID:     reviewID,
		SupervisorID: supervisorID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.creds.PutToken(token); err != nil {
		return nil, fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	s.logger.Info("Токен скачивания выдан",
		slog.String("review_id", reviewID),
		slog.String("supervisor_id", supervisorID),
		slog.Time("expires_at", token.ExpiresAt))

	return token, nil
}

// Inspect возвращает токен без гашения или (nil, false).
func (s *TokenService) Inspect(token string) (*model.DownloadToken, bool) {
	return s.creds.GetToken(token)
}

// InspectValid возвращает токен, если он привязан к ревизии
// и ещё действителен. Токен не гасится.
func (s *TokenService) InspectValid(token, reviewID string) (*model.DownloadToken, bool) {
	record, ok := s.creds.GetToken(token)
	if !ok || record.ReviewID != reviewID || !record.IsValid(time.Now().UTC()) {
		return nil, false
	}
	return record, true
}

// ValidateAndConsume атомарно валидирует и гасит токен.
// Fail-closed: false при отсутствии, несовпадении ревизии,
// повторном использовании и истечении срока. Возвращает true
// не более одного раза для каждого токена.
func (s *TokenService) ValidateAndConsume(token, reviewID string) bool {
	ok := s.creds.ConsumeToken(token, reviewID, time.Now().UTC())
	if ok {
		s.logger.Info("Токен скачивания погашен",
			slog.String("review_id", reviewID))
	}
	return ok
}
