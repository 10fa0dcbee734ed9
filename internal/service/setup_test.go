package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/credstore"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/storage/reviewstore"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/supervisor"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/validation"
)

const testEnvSchema = `{
  "fields": {
    "Name": {"type": "string", "editable": true, "required": true},
    "LockedField": {"type": "string", "editable": false}
  },
  "blocks": {
    "scope": {
      "append_mode": "labelled",
      "label": "Дополнительно:",
      "custom_type": "text",
      "max_length": 500
    }
  }
}`

const testEnvTemplate = `<h1>Договор: {{ Name }}</h1>
[[BLOCK:scope]]Объём услуг для {{ Name }}[[/BLOCK]]
<p>Конец документа</p>`

// testEnv — собранный стенд воркфлоу для тестов.
type testEnv struct {
	workflow  *WorkflowService
	reviews   *reviewstore.Store
	creds     *credstore.Store
	approval  *ApprovalService
	tokens    *TokenService
	renderer  *fakeRenderer
	artifacts string
}

// fakeRenderer — управляемый рендерер для тестов воркфлоу.
type fakeRenderer struct {
	fail     bool
	rendered int
	lastData map[string]any
	dir      string
}

func (f *fakeRenderer) Render(docType string, data map[string]any, reviewID string) (string, string, error) {
	f.lastData = data
	if f.fail {
		return "", "", errors.New("рендерер недоступен")
	}
	f.rendered++
	path := filepath.Join(f.dir, fmt.Sprintf("%s_%d.html", reviewID, f.rendered))
	if err := os.WriteFile(path, []byte("<html>артефакт</html>"), 0o640); err != nil {
		return "", "", err
	}
	return path, docType + "_test.html", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupEnv собирает полный стенд: схемы, шаблон, супервизоры,
// хранилища и оркестратор поверх fakeRenderer.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	root := t.TempDir()

	schemasDir := filepath.Join(root, "schemas")
	templatesDir := filepath.Join(root, "templates")
	artifactsDir := filepath.Join(root, "artifacts")
	dataDir := filepath.Join(root, "data")
	for _, dir := range []string{schemasDir, templatesDir, artifactsDir, dataDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("ошибка создания каталога: %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(schemasDir, "contract.json"), []byte(testEnvSchema), 0o644); err != nil {
		t.Fatalf("ошибка записи схемы: %v", err)
	}
	if err := os.WriteFile(filepath.Join(templatesDir, "contract.html"), []byte(testEnvTemplate), 0o644); err != nil {
		t.Fatalf("ошибка записи шаблона: %v", err)
	}

	sum := sha256.Sum256([]byte("secret1"))
	supContent := fmt.Sprintf(`[
		{"id": "sup-1", "name": "Иванов И.И.", "active": true, "password_hash": "%s"},
		{"id": "sup-off", "name": "Выключенный", "active": false, "password": "x"}
	]`, hex.EncodeToString(sum[:]))
	supPath := filepath.Join(root, "supervisors.json")
	if err := os.WriteFile(supPath, []byte(supContent), 0o600); err != nil {
		t.Fatalf("ошибка записи супервизоров: %v", err)
	}

	loader := schema.NewLoader(schemasDir, 8, time.Minute, logger)
	validator := validation.New(loader, logger)

	reviews := reviewstore.New(filepath.Join(dataDir, "reviews"), logger)
	if err := reviews.Load(); err != nil {
		t.Fatalf("ошибка загрузки хранилища ревизий: %v", err)
	}
	creds := credstore.New(dataDir, logger)
	if err := creds.Load(); err != nil {
		t.Fatalf("ошибка загрузки хранилища учётных данных: %v", err)
	}

	registry, err := supervisor.Load(supPath, logger)
	if err != nil {
		t.Fatalf("ошибка загрузки реестра супервизоров: %v", err)
	}

	approval := NewApprovalService(creds, registry, 72*time.Hour, logger)
	tokens := NewTokenService(creds, 5*time.Minute, logger)
	renderer := &fakeRenderer{dir: artifactsDir}

	workflow := NewWorkflowService(reviews, approval, tokens, validator, loader,
		registry, renderer, "http://localhost:8080", logger)

	return &testEnv{
		workflow:  workflow,
		reviews:   reviews,
		creds:     creds,
		approval:  approval,
		tokens:    tokens,
		renderer:  renderer,
		artifacts: artifactsDir,
	}
}
