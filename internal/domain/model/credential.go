package model

import "time"

// ApprovalCode — одноразовый код согласования, привязанный к ревизии
// и конкретному супервизору. Выдаётся после submit, действует
// ограниченное время и гасится при первой успешной авторизации.
type ApprovalCode struct {
	// Code — сам код: 8 символов, заглавные латинские буквы и цифры
	Code string `json:"code"`
	// ReviewID — ревизия, к которой привязан код
	ReviewID string `json:"review_id"`
	// SupervisorID — супервизор, для которого выдан код
	SupervisorID string `json:"supervisor_id"`
	// CreatedAt — момент выдачи (UTC)
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt — момент истечения срока действия
	ExpiresAt time.Time `json:"expires_at"`
	// Used — код погашен успешной авторизацией
	Used bool `json:"used"`
	// UsedAt — момент гашения
	UsedAt *time.Time `json:"used_at,omitempty"`
}

// IsExpired проверяет, истёк ли срок действия кода.
func (c *ApprovalCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsValid проверяет, что код не погашен и не истёк.
func (c *ApprovalCode) IsValid(now time.Time) bool {
	return !c.Used && !c.IsExpired(now)
}

// MarkUsed гасит код. Повторная авторизация тем же кодом невозможна.
func (c *ApprovalCode) MarkUsed(now time.Time) {
	c.Used = true
	t := now
	c.UsedAt = &t
}

// DownloadToken — короткоживущий одноразовый токен скачивания.
// Выдаётся после успешной авторизации супервизора и гасится
// при первом успешном скачивании.
type DownloadToken struct {
	// Token — непрозрачная случайная строка (URL-safe base64)
	Token string `json:"token"`
	// ReviewID — ревизия, к которой привязан токен
	ReviewID string `json:"review_id"`
	// SupervisorID — супервизор, получивший токен
	SupervisorID string `json:"supervisor_id"`
	// CreatedAt — момент выдачи (UTC)
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt — момент истечения срока действия
	ExpiresAt time.Time `json:"expires_at"`
	// Used — токен погашен скачиванием
	Used bool `json:"used"`
	// UsedAt — момент гашения
	UsedAt *time.Time `json:"used_at,omitempty"`
}

// IsExpired проверяет, истёк ли срок действия токена.
func (t *DownloadToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsValid проверяет, что токен не погашен и не истёк.
func (t *DownloadToken) IsValid(now time.Time) bool {
	return !t.Used && !t.IsExpired(now)
}

// MarkUsed гасит токен.
func (t *DownloadToken) MarkUsed(now time.Time) {
	t.Used = true
	at := now
	t.UsedAt = &at
}

// Supervisor — запись реестра супервизоров. Реестр читается из
// внешней конфигурации при старте и во время работы не меняется.
type Supervisor struct {
	// ID — идентификатор супервизора
	ID string `json:"id"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// Email — адрес для уведомлений
	Email string `json:"email,omitempty"`
	// Active — супервизор может получать коды согласования
	Active bool `json:"active"`
	// PasswordHash — SHA-256 пароля в hex. Если пусто, проверка
	// идёт по полю Password (открытый текст, для тестовых стендов).
	PasswordHash string `json:"password_hash,omitempty"`
	// Password — пароль открытым текстом (fallback)
	Password string `json:"password,omitempty"`
}
