package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrUnknownDocType — схема для типа документа не найдена.
var ErrUnknownDocType = errors.New("неизвестный тип документа")

// Prometheus-метрики кэша схем.
var (
	schemaCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_schema_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш схем.",
	})
	schemaCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_schema_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша схем.",
	})
)

// docTypePattern — допустимые имена типов документов.
// Защита от path traversal при построении пути к файлу схемы.
var docTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Loader загружает схемы из JSON-файлов и кеширует их.
// Обёртка над hashicorp/golang-lru/v2/expirable.
type Loader struct {
	schemasDir string
	cache      *expirable.LRU[string, *Schema]
	logger     *slog.Logger
}

// NewLoader создаёт загрузчик схем.
// maxSize — максимальное количество схем в кэше, ttl — время жизни записи.
func NewLoader(schemasDir string, maxSize int, ttl time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		schemasDir: schemasDir,
		cache:      expirable.NewLRU[string, *Schema](maxSize, nil, ttl),
		logger:     logger.With(slog.String("component", "schema-loader")),
	}
}

// Load возвращает схему для типа документа.
// Возвращает ErrUnknownDocType, если файл схемы отсутствует
// или имя типа документа недопустимо.
func (l *Loader) Load(docType string) (*Schema, error) {
	if !docTypePattern.MatchString(docType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocType, docType)
	}

	if s, ok := l.cache.Get(docType); ok {
		schemaCacheHitsTotal.Inc()
		return s, nil
	}
	schemaCacheMissesTotal.Inc()

	path := filepath.Join(l.schemasDir, docType+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDocType, docType)
		}
		return nil, fmt.Errorf("ошибка чтения схемы %s: %w", path, err)
	}

	s := &Schema{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("ошибка разбора схемы %s: %w", path, err)
	}

	s.DocType = docType
	for key, block := range s.Blocks {
		block.applyDefaults(key)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("некорректная схема %s: %w", path, err)
	}

	l.cache.Add(docType, s)
	l.logger.Debug("Схема загружена",
		slog.String("doc_type", docType),
		slog.Int("fields", len(s.Fields)),
		slog.Int("blocks", len(s.Blocks)))

	return s, nil
}

// Invalidate удаляет схему из кэша. Следующий Load перечитает файл.
func (l *Loader) Invalidate(docType string) {
	l.cache.Remove(docType)
}

// ListDocTypes возвращает типы документов, для которых есть файлы схем.
func (l *Loader) ListDocTypes() ([]string, error) {
	entries, err := os.ReadDir(l.schemasDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога схем %s: %w", l.schemasDir, err)
	}

	types := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		docType := strings.TrimSuffix(e.Name(), ".json")
		if docTypePattern.MatchString(docType) {
			types = append(types, docType)
		}
	}
	return types, nil
}
