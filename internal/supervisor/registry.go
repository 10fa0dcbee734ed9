// Пакет supervisor — реестр супервизоров.
//
// Реестр загружается из JSON-файла при старте процесса и далее
// только читается. Создание и изменение супервизоров — задача
// внешней конфигурации, не воркфлоу.
package supervisor

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/fsio"
)

// ErrUnknownSupervisor — супервизор не найден или неактивен.
var ErrUnknownSupervisor = errors.New("неизвестный супервизор")

// Registry — неизменяемый после загрузки реестр супервизоров.
type Registry struct {
	byID   map[string]*model.Supervisor
	logger *slog.Logger
}

// Load читает реестр из JSON-файла (список записей Supervisor).
func Load(path string, logger *slog.Logger) (*Registry, error) {
	log := logger.With(slog.String("component", "supervisors"))

	var entries []*model.Supervisor
	if err := fsio.ReadJSON(path, &entries); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Файл реестра супервизоров отсутствует, реестр пуст",
				slog.String("path", path))
			return &Registry{byID: map[string]*model.Supervisor{}, logger: log}, nil
		}
		return nil, fmt.Errorf("ошибка загрузки реестра супервизоров: %w", err)
	}

	byID := make(map[string]*model.Supervisor, len(entries))
	for _, sup := range entries {
		if sup.ID == "" {
			return nil, fmt.Errorf("запись супервизора без id в %s", path)
		}
		if _, dup := byID[sup.ID]; dup {
			return nil, fmt.Errorf("дублирующийся id супервизора %q в %s", sup.ID, path)
		}
		byID[sup.ID] = sup
	}

	log.Info("Реестр супервизоров загружен",
		slog.Int("supervisors", len(byID)),
		slog.String("path", path))

	return &Registry{byID: byID, logger: log}, nil
}

// Get возвращает активного супервизора по id.
// Возвращает ErrUnknownSupervisor для отсутствующих и неактивных.
func (r *Registry) Get(id string) (*model.Supervisor, error) {
	sup, ok := r.byID[id]
	if !ok || !sup.Active {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSupervisor, id)
	}
	copied := *sup
	return &copied, nil
}

// List возвращает активных супервизоров без секретов,
// отсортированных по id.
func (r *Registry) List() []*model.Supervisor {
	result := make([]*model.Supervisor, 0, len(r.byID))
	for _, sup := range r.byID {
		if !sup.Active {
			continue
		}
		copied := *sup
		copied.PasswordHash = ""
		copied.Password = ""
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// VerifyPassword проверяет пароль супервизора.
// Основной путь — сравнение SHA-256 в hex; при пустом password_hash
// сравнивается открытый текст. Оба сравнения за константное время.
func (r *Registry) VerifyPassword(id, password string) (bool, error) {
	sup, err := r.Get(id)
	if err != nil {
		return false, err
	}

	if sup.PasswordHash != "" {
		sum := sha256.Sum256([]byte(password))
		got := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(got), []byte(sup.PasswordHash)) == 1, nil
	}

	if sup.Password != "" {
		return subtle.ConstantTimeCompare([]byte(password), []byte(sup.Password)) == 1, nil
	}

	// Супервизор без секрета не аутентифицируется
	return false, nil
}
