// Пакет reviewstore — персистентное хранилище ревизий.
//
// Авторитетная копия живёт в памяти (map + sync.RWMutex), каждая
// мутация синхронно сбрасывается атомарным снапшотом в
// <dir>/<review_id>.review.json. При старте хранилище пересобирает
// карту из файлов снапшотов.
//
// Цикл validate → mutate → persist выполняется под per-review
// мьютексом (Mutate): конкурентные правки одной ревизии
// сериализуются, «потерянных» обновлений нет.
package reviewstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/fsio"
)

// ReviewSuffix — суффикс файла снапшота ревизии.
const ReviewSuffix = ".review.json"

// ErrNotFound — ревизия не найдена.
var ErrNotFound = errors.New("ревизия не найдена")

// Store — потокобезопасное хранилище ревизий.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	reviews map[string]*model.Review

	// Per-review мьютексы для Mutate. Живут до рестарта процесса.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New создаёт пустое хранилище. Для заполнения вызовите Load.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:     dir,
		logger:  logger.With(slog.String("component", "reviewstore")),
		reviews: make(map[string]*model.Review),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Load строит карту ревизий из файлов снапшотов в каталоге.
// Вызывается при старте сервера. Невалидные снапшоты пропускаются
// с записью в лог.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать каталог %s: %w", s.dir, err)
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ReviewSuffix))
	if err != nil {
		return fmt.Errorf("ошибка сканирования каталога %s: %w", s.dir, err)
	}

	s.reviews = make(map[string]*model.Review, len(matches))
	skipped := 0
	for _, path := range matches {
		r := &model.Review{}
		if err := fsio.ReadJSON(path, r); err != nil {
			s.logger.Warn("Пропущен невалидный снапшот ревизии",
				slog.String("path", path),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		s.reviews[r.ReviewID] = r
	}

	s.logger.Info("Хранилище ревизий загружено",
		slog.Int("reviews", len(s.reviews)),
		slog.Int("skipped", skipped),
		slog.String("dir", s.dir))

	return nil
}

// Get возвращает копию ревизии по идентификатору.
func (s *Store) Get(reviewID string) (*model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// Save добавляет или перезаписывает ревизию и сбрасывает снапшот на диск.
func (s *Store) Save(r *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(r)
}

func (s *Store) saveLocked(r *model.Review) error {
	if err := fsio.WriteJSON(s.path(r.ReviewID), r); err != nil {
		return fmt.Errorf("ошибка записи снапшота ревизии %s: %w", r.ReviewID, err)
	}
	s.reviews[r.ReviewID] = r.Clone()
	return nil
}

// Mutate выполняет цикл read-modify-write над одной ревизией под
// её персональным мьютексом. fn получает копию ревизии; если fn
// вернула nil, изменённая копия персистится и становится новой
// авторитетной версией. Ошибка fn отменяет запись целиком.
func (s *Store) Mutate(reviewID string, fn func(r *model.Review) error) (*model.Review, error) {
	lock := s.reviewLock(reviewID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current, ok := s.reviews[reviewID]
	var working *model.Review
	if ok {
		working = current.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if err := fn(working); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(working); err != nil {
		return nil, err
	}
	return working.Clone(), nil
}

// List возвращает копии ревизий с опциональной фильтрацией по статусу
// и автору, отсортированные по дате создания (новые первые).
func (s *Store) List(statusFilter model.ReviewStatus, createdBy string) []*model.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*model.Review
	for _, r := range s.reviews {
		if statusFilter != "" && r.Status != statusFilter {
			continue
		}
		if createdBy != "" && r.CreatedBy != createdBy {
			continue
		}
		filtered = append(filtered, r.Clone())
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		// Стабильный порядок при равных датах
		return filtered[i].ReviewID < filtered[j].ReviewID
	})

	return filtered
}

// Count возвращает общее количество ревизий.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}

// CountByStatus возвращает количество ревизий в указанном статусе.
func (s *Store) CountByStatus(status model.ReviewStatus) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.reviews {
		if r.Status == status {
			count++
		}
	}
	return count
}

// reviewLock возвращает персональный мьютекс ревизии.
func (s *Store) reviewLock(reviewID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.locks[reviewID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[reviewID] = lock
	}
	return lock
}

func (s *Store) path(reviewID string) string {
	// Путь не должен выходить за пределы каталога
	safe := strings.ReplaceAll(reviewID, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+ReviewSuffix)
}
