// Пакет credstore — персистентное хранилище эфемерных учётных данных:
// кодов согласования и токенов скачивания.
//
// Один мьютекс закрывает последовательности check-and-mark-used,
// поэтому семантика «ровно один раз» для кода и токена гарантируется
// при любом числе конкурентных запросов. Снапшоты карт сбрасываются
// атомарно в approval_codes.json и download_tokens.json.
package credstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/fsio"
)

const (
	codesFile  = "approval_codes.json"
	tokensFile = "download_tokens.json"
)

// Store — потокобезопасное хранилище кодов и токенов.
type Store struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	codes  map[string]*model.ApprovalCode
	tokens map[string]*model.DownloadToken
}

// New создаёт пустое хранилище. Для заполнения вызовите Load.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With(slog.String("component", "credstore")),
		codes:  make(map[string]*model.ApprovalCode),
		tokens: make(map[string]*model.DownloadToken),
	}
}

// Load читает снапшоты карт с диска. Отсутствующие файлы — не ошибка.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать каталог %s: %w", s.dir, err)
	}

	s.codes = make(map[string]*model.ApprovalCode)
	if err := fsio.ReadJSON(s.codesPath(), &s.codes); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка загрузки кодов согласования: %w", err)
	}

	s.tokens = make(map[string]*model.DownloadToken)
	if err := fsio.ReadJSON(s.tokensPath(), &s.tokens); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка загрузки токенов скачивания: %w", err)
	}

	s.logger.Info("Хранилище учётных данных загружено",
		slog.Int("codes", len(s.codes)),
		slog.Int("tokens", len(s.tokens)),
		slog.String("dir", s.dir))

	return nil
}

// PutCode сохраняет код согласования.
func (s *Store) PutCode(code *model.ApprovalCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[code.Code] = code
	return s.persistCodes()
}

// GetCode возвращает копию кода согласования.
func (s *Store) GetCode(code string) (*model.ApprovalCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, false
	}
	copied := *c
	return &copied, true
}

// CodeExists проверяет наличие кода. Используется генератором
// для перегенерации при коллизии.
func (s *Store) CodeExists(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.codes[code]
	return ok
}

// UseCode атомарно гасит код: проверка и установка флага used
// выполняются под одним мьютексом. Возвращает true не более
// одного раза для каждого кода.
func (s *Store) UseCode(code string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok || !c.IsValid(now) {
		return false
	}

	c.MarkUsed(now)
	if err := s.persistCodes(); err != nil {
		s.logger.Error("Ошибка персистенции кодов после гашения",
			slog.String("error", err.Error()))
	}
	return true
}

// PutToken сохраняет токен скачивания.
func (s *Store) PutToken(token *model.DownloadToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Token] = token
	return s.persistTokens()
}

// GetToken возвращает копию токена без гашения.
// Используется для предпросмотра и просмотра audit log.
func (s *Store) GetToken(token string) (*model.DownloadToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	copied := *t
	return &copied, true
}

// ConsumeToken атомарно валидирует и гасит токен. Возвращает false,
// если токен отсутствует, привязан к другой ревизии, уже погашен
// или истёк. Возвращает true не более одного раза для каждого токена.
func (s *Store) ConsumeToken(token, reviewID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok || t.ReviewID != reviewID || !t.IsValid(now) {
		return false
	}

	t.MarkUsed(now)
	if err := s.persistTokens(); err != nil {
		s.logger.Error("Ошибка персистенции токенов после гашения",
			slog.String("error", err.Error()))
	}
	return true
}

// CleanupExpired удаляет истёкшие непогашенные коды и истёкшие либо
// погашенные токены. Погашенные коды сохраняются как след согласования.
// Возвращает количество удалённых кодов и токенов.
func (s *Store) CleanupExpired(now time.Time) (codesRemoved, tokensRemoved int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.codes {
		if !c.Used && c.IsExpired(now) {
			delete(s.codes, key)
			codesRemoved++
		}
	}
	for key, t := range s.tokens {
		if t.Used || t.IsExpired(now) {
			delete(s.tokens, key)
			tokensRemoved++
		}
	}

	if codesRemoved > 0 {
		if err := s.persistCodes(); err != nil {
			s.logger.Error("Ошибка персистенции кодов после очистки",
				slog.String("error", err.Error()))
		}
	}
	if tokensRemoved > 0 {
		if err := s.persistTokens(); err != nil {
			s.logger.Error("Ошибка персистенции токенов после очистки",
				slog.String("error", err.Error()))
		}
	}

	return codesRemoved, tokensRemoved
}

// Counts возвращает текущее количество кодов и токенов.
func (s *Store) Counts() (codes, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes), len(s.tokens)
}

func (s *Store) persistCodes() error {
	return fsio.WriteJSON(s.codesPath(), s.codes)
}

func (s *Store) persistTokens() error {
	return fsio.WriteJSON(s.tokensPath(), s.tokens)
}

func (s *Store) codesPath() string {
	return filepath.Join(s.dir, codesFile)
}

func (s *Store) tokensPath() string {
	return filepath.Join(s.dir, tokensFile)
}
