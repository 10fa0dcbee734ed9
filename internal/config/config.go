// Пакет config — загрузка и валидация конфигурации review-module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации review-module.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Базовый URL для построения manager-ссылок (например, "https://reviews.example.org")
	BaseURL string
	// Путь к директории данных (ревизии, коды, токены)
	DataDir string
	// Путь к директории JSON-схем типов документов
	SchemasDir string
	// Путь к директории HTML-шаблонов документов
	TemplatesDir string
	// Путь к директории отрендеренных артефактов
	ArtifactsDir string
	// Путь к файлу реестра супервизоров
	SupervisorsFile string
	// Срок действия кода согласования
	ApprovalCodeTTL time.Duration
	// Срок действия токена скачивания
	DownloadTokenTTL time.Duration
	// Интервал фоновой очистки учётных данных
	CleanupInterval time.Duration
	// Размер LRU-кэша схем
	SchemaCacheSize int
	// TTL записей кэша схем
	SchemaCacheTTL time.Duration
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// RM_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("RM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("RM_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("RM_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// RM_BASE_URL — обязательный, без завершающего слеша
	cfg.BaseURL, err = getEnvRequired("RM_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// RM_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("RM_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// RM_SCHEMAS_DIR — обязательный
	cfg.SchemasDir, err = getEnvRequired("RM_SCHEMAS_DIR")
	if err != nil {
		return nil, err
	}

	// RM_TEMPLATES_DIR — обязательный
	cfg.TemplatesDir, err = getEnvRequired("RM_TEMPLATES_DIR")
	if err != nil {
		return nil, err
	}

	// RM_ARTIFACTS_DIR — обязательный
	cfg.ArtifactsDir, err = getEnvRequired("RM_ARTIFACTS_DIR")
	if err != nil {
		return nil, err
	}

	// RM_SUPERVISORS_FILE — обязательный
	cfg.SupervisorsFile, err = getEnvRequired("RM_SUPERVISORS_FILE")
	if err != nil {
		return nil, err
	}

	// RM_APPROVAL_CODE_TTL — срок действия кода согласования (по умолчанию 72h)
	cfg.ApprovalCodeTTL, err = getEnvDuration("RM_APPROVAL_CODE_TTL", 72*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RM_APPROVAL_CODE_TTL: %w", err)
	}
	if cfg.ApprovalCodeTTL <= 0 {
		return nil, fmt.Errorf("RM_APPROVAL_CODE_TTL: значение должно быть положительным")
	}

	// RM_DOWNLOAD_TOKEN_TTL — срок действия токена скачивания (по умолчанию 5m)
	cfg.DownloadTokenTTL, err = getEnvDuration("RM_DOWNLOAD_TOKEN_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RM_DOWNLOAD_TOKEN_TTL: %w", err)
	}
	if cfg.DownloadTokenTTL <= 0 {
		return nil, fmt.Errorf("RM_DOWNLOAD_TOKEN_TTL: значение должно быть положительным")
	}

	// RM_CLEANUP_INTERVAL — интервал очистки учётных данных (по умолчанию 1h)
	cfg.CleanupInterval, err = getEnvDuration("RM_CLEANUP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RM_CLEANUP_INTERVAL: %w", err)
	}

	// RM_SCHEMA_CACHE_SIZE — размер LRU-кэша схем (по умолчанию 32)
	cacheSize, err := getEnvInt("RM_SCHEMA_CACHE_SIZE", 32)
	if err != nil {
		return nil, fmt.Errorf("RM_SCHEMA_CACHE_SIZE: %w", err)
	}
	if cacheSize <= 0 {
		return nil, fmt.Errorf("RM_SCHEMA_CACHE_SIZE: значение должно быть положительным")
	}
	cfg.SchemaCacheSize = cacheSize

	// RM_SCHEMA_CACHE_TTL — TTL записей кэша схем (по умолчанию 10m)
	cfg.SchemaCacheTTL, err = getEnvDuration("RM_SCHEMA_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RM_SCHEMA_CACHE_TTL: %w", err)
	}

	// RM_TLS_CERT / RM_TLS_KEY — TLS опционален, но задаётся парой
	cfg.TLSCert = getEnvDefault("RM_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("RM_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("RM_TLS_CERT и RM_TLS_KEY должны быть заданы вместе")
	}

	// RM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RM_LOG_LEVEL: %w", err)
	}

	// RM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// RM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("RM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 72h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
