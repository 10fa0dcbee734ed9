package reviewstore

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(t.TempDir(), logger)
	if err := s.Load(); err != nil {
		t.Fatalf("ошибка Load: %v", err)
	}
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := setupStore(t)

	r := model.NewReview("contract", map[string]any{"name": "Acme"}, "user-1", "")
	if err := s.Save(r); err != nil {
		t.Fatalf("ошибка Save: %v", err)
	}

	got, err := s.Get(r.ReviewID)
	if err != nil {
		t.Fatalf("ошибка Get: %v", err)
	}
	if got.ReviewID != r.ReviewID || got.Data["name"] != "Acme" {
		t.Errorf("получили не ту ревизию: %+v", got)
	}

	// Get отдаёт копию
	got.Data["name"] = "изменено"
	again, _ := s.Get(r.ReviewID)
	if again.Data["name"] != "Acme" {
		t.Error("мутация результата Get не должна влиять на хранилище")
	}

	if _, err := s.Get("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("хотели ErrNotFound, получили %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	s1 := New(dir, logger)
	if err := s1.Load(); err != nil {
		t.Fatalf("ошибка Load: %v", err)
	}

	r := model.NewReview("contract", map[string]any{"name": "Acme", "n": float64(2)}, "user-1", "10.0.0.1")
	r.UpdateField("name", "Acme2", "user-1", "10.0.0.2")
	r.Submit("user-1", "10.0.0.3")
	if err := s1.Save(r); err != nil {
		t.Fatalf("ошибка Save: %v", err)
	}

	// Новое хранилище поверх того же каталога — сериализация/десериализация
	s2 := New(dir, logger)
	if err := s2.Load(); err != nil {
		t.Fatalf("ошибка повторного Load: %v", err)
	}

	got, err := s2.Get(r.ReviewID)
	if err != nil {
		t.Fatalf("ошибка Get после перезагрузки: %v", err)
	}

	if got.Status != model.StatusSubmitted {
		t.Errorf("статус: хотели %s, получили %s", model.StatusSubmitted, got.Status)
	}
	if got.Data["name"] != "Acme2" || got.Data["n"] != float64(2) {
		t.Errorf("данные: получили %v", got.Data)
	}
	if len(got.AuditLog) != len(r.AuditLog) {
		t.Fatalf("audit log: хотели %d записей, получили %d", len(r.AuditLog), len(got.AuditLog))
	}
	// Порядок записей сохраняется
	for i := range r.AuditLog {
		if got.AuditLog[i].Action != r.AuditLog[i].Action {
			t.Errorf("запись %d: хотели %s, получили %s", i, r.AuditLog[i].Action, got.AuditLog[i].Action)
		}
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(*r.SubmittedAt) {
		t.Errorf("submitted_at: хотели %v, получили %v", r.SubmittedAt, got.SubmittedAt)
	}
}

func TestMutate(t *testing.T) {
	s := setupStore(t)

	r := model.NewReview("contract", map[string]any{"n": float64(0)}, "user-1", "")
	if err := s.Save(r); err != nil {
		t.Fatalf("ошибка Save: %v", err)
	}

	updated, err := s.Mutate(r.ReviewID, func(r *model.Review) error {
		r.UpdateField("n", float64(1), "user-1", "")
		return nil
	})
	if err != nil {
		t.Fatalf("ошибка Mutate: %v", err)
	}
	if updated.Data["n"] != float64(1) {
		t.Errorf("данные после Mutate: получили %v", updated.Data["n"])
	}

	// Ошибка fn отменяет запись
	wantErr := errors.New("отказ")
	if _, err := s.Mutate(r.ReviewID, func(r *model.Review) error {
		r.Data["n"] = float64(99)
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("хотели ошибку fn, получили %v", err)
	}
	got, _ := s.Get(r.ReviewID)
	if got.Data["n"] != float64(1) {
		t.Errorf("неудачный Mutate не должен менять данные: %v", got.Data["n"])
	}

	if _, err := s.Mutate("nonexistent", func(r *model.Review) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("хотели ErrNotFound, получили %v", err)
	}
}

func TestMutateConcurrent(t *testing.T) {
	s := setupStore(t)

	r := model.NewReview("contract", map[string]any{"n": float64(0)}, "user-1", "")
	if err := s.Save(r); err != nil {
		t.Fatalf("ошибка Save: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			s.Mutate(r.ReviewID, func(r *model.Review) error {
				r.Data["n"] = r.Data["n"].(float64) + 1
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get(r.ReviewID)
	if got.Data["n"] != float64(workers) {
		t.Errorf("конкурентные Mutate теряют обновления: хотели %d, получили %v", workers, got.Data["n"])
	}
}

func TestList(t *testing.T) {
	s := setupStore(t)

	r1 := model.NewReview("contract", nil, "user-1", "")
	r2 := model.NewReview("contract", nil, "user-2", "")
	r2.Submit("user-2", "")
	for _, r := range []*model.Review{r1, r2} {
		if err := s.Save(r); err != nil {
			t.Fatalf("ошибка Save: %v", err)
		}
	}

	all := s.List("", "")
	if len(all) != 2 {
		t.Fatalf("List без фильтров: хотели 2, получили %d", len(all))
	}

	drafts := s.List(model.StatusDraft, "")
	if len(drafts) != 1 || drafts[0].ReviewID != r1.ReviewID {
		t.Errorf("фильтр по статусу: получили %d ревизий", len(drafts))
	}

	byUser := s.List("", "user-2")
	if len(byUser) != 1 || byUser[0].ReviewID != r2.ReviewID {
		t.Errorf("фильтр по автору: получили %d ревизий", len(byUser))
	}

	if s.Count() != 2 {
		t.Errorf("Count: хотели 2, получили %d", s.Count())
	}
	if s.CountByStatus(model.StatusSubmitted) != 1 {
		t.Errorf("CountByStatus(SUBMITTED): хотели 1, получили %d", s.CountByStatus(model.StatusSubmitted))
	}
}
