// render.go — рендеринг артефакта документа.
//
// Рендерер — внешний коллаборатор воркфлоу: получает финальные данные
// ревизии (включая синтетические переменные блоков) и возвращает путь
// к готовому артефакту и имя файла для выдачи. TemplateRenderer —
// штатная реализация поверх HTML-шаблонов с якорными блоками
// [[BLOCK:key]]...[[/BLOCK]] и подстановкой {{ переменных }}.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/block"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
)

// ErrTemplateNotFound — шаблон для типа документа отсутствует.
var ErrTemplateNotFound = errors.New("шаблон документа не найден")

// Renderer — контракт рендеринга артефакта.
type Renderer interface {
	// Render превращает данные ревизии в артефакт.
	// Возвращает путь к файлу артефакта и имя файла для выдачи.
	Render(docType string, data map[string]any, reviewID string) (artifactPath, filename string, err error)
}

// TemplateRenderer — рендерер поверх HTML-шаблонов
// <templates_dir>/<doc_type>.html.
type TemplateRenderer struct {
	templatesDir string
	artifactsDir string
	schemas      *schema.Loader
	logger       *slog.Logger
}

// NewTemplateRenderer создаёт рендерер.
func NewTemplateRenderer(templatesDir, artifactsDir string, schemas *schema.Loader, logger *slog.Logger) *TemplateRenderer {
	return &TemplateRenderer{
		templatesDir: templatesDir,
		artifactsDir: artifactsDir,
		schemas:      schemas,
		logger:       logger.With(slog.String("component", "renderer")),
	}
}

// Render читает шаблон типа документа, заменяет якорные блоки
// плейсхолдерами, подставляет переменные и записывает артефакт
// в каталог артефактов.
//
// Переменные __block_*__, уже присутствующие в данных (их инъецирует
// оркестратор), имеют приоритет над вычисленными здесь.
func (r *TemplateRenderer) Render(docType string, data map[string]any, reviewID string) (string, string, error) {
	s, err := r.schemas.Load(docType)
	if err != nil {
		return "", "", err
	}

	templatePath := filepath.Join(r.templatesDir, docType+".html")
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return "", "", fmt.Errorf("ошибка чтения шаблона %s: %w", templatePath, err)
	}

	// Определения блоков копируются: PrepareTemplate дописывает
	// inner_template, а схема в кэше общая
	defs := make(map[string]*schema.BlockDefinition, len(s.Blocks))
	for key, def := range s.Blocks {
		copied := *def
		defs[key] = &copied
	}

	prepared := block.PrepareTemplate(string(raw), defs)

	merged := make(map[string]any, len(data)+len(defs))
	for k, v := range data {
		merged[k] = v
	}
	for name, value := range block.GenerateVariables(defs, data) {
		if _, ok := merged[name]; !ok {
			merged[name] = value
		}
	}

	rendered := block.RenderInner(prepared, merged)

	if err := os.MkdirAll(r.artifactsDir, 0o750); err != nil {
		return "", "", fmt.Errorf("не удалось создать каталог артефактов: %w", err)
	}

	artifactPath := filepath.Join(r.artifactsDir,
		fmt.Sprintf("%s_%d.html", reviewID, time.Now().UTC().UnixNano()))
	if err := os.WriteFile(artifactPath, []byte(rendered), 0o640); err != nil {
		return "", "", fmt.Errorf("ошибка записи артефакта: %w", err)
	}

	filename := artifactFilename(docType, reviewID)

	r.logger.Info("Артефакт отрендерен",
		slog.String("review_id", reviewID),
		slog.String("doc_type", docType),
		slog.String("artifact", artifactPath))

	return artifactPath, filename, nil
}

// artifactFilename строит имя файла для выдачи клиенту.
func artifactFilename(docType, reviewID string) string {
	short := reviewID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s.html", docType, short)
}
