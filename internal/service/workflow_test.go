package service

import (
	"net/http"
	"os"
	"regexp"
	"slices"
	"testing"

	apierrors "github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/api/errors"
	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/domain/model"
)

var meta = RequestMeta{ClientIP: "10.0.0.1", UserAgent: "go-test/1.0"}

func TestCreateReview(t *testing.T) {
	env := setupEnv(t)

	created, werr := env.workflow.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)
	if werr != nil {
		t.Fatalf("неожиданная ошибка: %v", werr)
	}

	if created.Status != model.StatusDraft {
		t.Errorf("статус: хотели DRAFT, получили %s", created.Status)
	}
	wantLink := "http://localhost:8080/manager/reviews/" + created.ReviewID
	if created.ManagerLink != wantLink {
		t.Errorf("manager_link: хотели %s, получили %s", wantLink, created.ManagerLink)
	}

	// Неизвестный тип документа
	_, werr = env.workflow.CreateReview("nonexistent", nil, "user-1", meta)
	if werr == nil || werr.Code != apierrors.CodeUnknownDocType {
		t.Errorf("хотели UNKNOWN_DOC_TYPE, получили %v", werr)
	}
}

func TestFullWorkflowScenario(t *testing.T) {
	env := setupEnv(t)
	wf := env.workflow

	// 1. Создание: статус DRAFT
	created, werr := wf.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)
	if werr != nil {
		t.Fatalf("ошибка создания: %v", werr)
	}
	id := created.ReviewID

	// 2. Обновление с нередактируемым полем
	update, werr := wf.UpdateData(id, map[string]any{
		"Name":        "Acme2",
		"LockedField": "hack",
	}, "user-1", meta)
	if werr != nil {
		t.Fatalf("ошибка обновления: %v", werr)
	}
	if !slices.Equal(update.UpdatedFields, []string{"Name"}) {
		t.Errorf("updated_fields: хотели [Name], получили %v", update.UpdatedFields)
	}
	if !slices.Equal(update.RejectedFields, []string{"LockedField"}) {
		t.Errorf("rejected_fields: хотели [LockedField], получили %v", update.RejectedFields)
	}

	data, werr := wf.GetData(id)
	if werr != nil {
		t.Fatalf("ошибка GetData: %v", werr)
	}
	if data.Data["Name"] != "Acme2" {
		t.Errorf("Name: хотели Acme2, получили %v", data.Data["Name"])
	}
	if _, ok := data.Data["LockedField"]; ok {
		t.Error("LockedField не должно попасть в данные")
	}

	// Audit log содержит field_update и unauthorized_field_attempt
	r, _ := env.reviews.Get(id)
	var hasUpdate, hasUnauthorized bool
	for _, e := range r.AuditLog {
		if e.Action == model.ActionFieldUpdate && e.FieldName == "Name" {
			hasUpdate = true
		}
		if e.Action == model.ActionUnauthorizedField && e.FieldName == "LockedField" {
			hasUnauthorized = true
		}
	}
	if !hasUpdate || !hasUnauthorized {
		t.Errorf("audit log: field_update=%v, unauthorized=%v", hasUpdate, hasUnauthorized)
	}

	// 3. Submit и запрет дальнейших правок
	submitted, werr := wf.Submit(id, "user-1", meta)
	if werr != nil {
		t.Fatalf("ошибка submit: %v", werr)
	}
	if submitted.Status != model.StatusSubmitted {
		t.Errorf("статус: хотели SUBMITTED, получили %s", submitted.Status)
	}

	_, werr = wf.Submit(id, "user-1", meta)
	if werr == nil || werr.StatusCode != http.StatusConflict {
		t.Errorf("повторный submit: хотели 409, получили %v", werr)
	}

	_, werr = wf.UpdateData(id, map[string]any{"Name": "Acme3"}, "user-1", meta)
	if werr == nil || werr.Code != apierrors.CodeNotEditable {
		t.Errorf("правка после submit: хотели NOT_EDITABLE, получили %v", werr)
	}
	after, _ := wf.GetData(id)
	if after.Data["Name"] != "Acme2" {
		t.Error("данные не должны меняться после submit")
	}

	// 4. Выдача кода согласования
	code, werr := wf.RequestApprovalCode(id, "sup-1", meta)
	if werr != nil {
		t.Fatalf("ошибка выдачи кода: %v", werr)
	}
	if !regexp.MustCompile(`^[A-Z0-9]{8}$`).MatchString(code.Code) {
		t.Errorf("формат кода: получили %q", code.Code)
	}
	if code.SupervisorName != "Иванов И.И." {
		t.Errorf("имя супервизора: получили %s", code.SupervisorName)
	}

	// 5. Авторизация с неверным паролем
	_, werr = wf.Authorize(code.Code, "wrong", meta)
	if werr == nil || werr.Code != apierrors.CodeWrongPassword {
		t.Errorf("хотели WRONG_PASSWORD, получили %v", werr)
	}

	// 6. Успешная авторизация гасит код
	auth, werr := wf.Authorize(code.Code, "secret1", meta)
	if werr != nil {
		t.Fatalf("ошибка авторизации: %v", werr)
	}
	if auth.DownloadToken == "" || auth.ReviewID != id {
		t.Errorf("результат авторизации: %+v", auth)
	}

	_, werr = wf.Authorize(code.Code, "secret1", meta)
	if werr == nil || werr.Code != apierrors.CodeCodeUsed {
		t.Errorf("повторная авторизация: хотели CODE_USED, получили %v", werr)
	}

	// Audit log просматривается действующим токеном без гашения
	entries, werr := wf.GetAuditLog(id, auth.DownloadToken)
	if werr != nil {
		t.Fatalf("ошибка GetAuditLog: %v", werr)
	}
	if len(entries) == 0 {
		t.Error("audit log не должен быть пустым")
	}

	// 7. Скачивание гасит токен и переводит в DOWNLOADED
	download, werr := wf.Download(id, auth.DownloadToken, meta)
	if werr != nil {
		t.Fatalf("ошибка скачивания: %v", werr)
	}
	if _, err := os.Stat(download.ArtifactPath); err != nil {
		t.Errorf("артефакт должен существовать: %v", err)
	}
	if download.Filename == "" {
		t.Error("имя файла не должно быть пустым")
	}

	info, _ := wf.GetReviewInfo(id)
	if info.Status != model.StatusDownloaded {
		t.Errorf("статус: хотели DOWNLOADED, получили %s", info.Status)
	}
	if info.DownloadedBy != "sup-1" {
		t.Errorf("downloaded_by: хотели sup-1, получили %s", info.DownloadedBy)
	}

	_, werr = wf.Download(id, auth.DownloadToken, meta)
	if werr == nil || werr.Code != apierrors.CodeInvalidToken {
		t.Errorf("повторное скачивание тем же токеном: хотели INVALID_TOKEN, получили %v", werr)
	}

	// Погашенный токен сохраняет доступ к audit log
	afterEntries, werr := wf.GetAuditLog(id, auth.DownloadToken)
	if werr != nil {
		t.Fatalf("GetAuditLog погашенным токеном: %v", werr)
	}
	if len(afterEntries) <= len(entries) {
		t.Errorf("audit log должен пополниться: было %d, стало %d", len(entries), len(afterEntries))
	}

	// Данные рендерера содержат синтетическую переменную блока
	if _, ok := env.renderer.lastData["__block_scope__"]; !ok {
		t.Error("в данные рендерера должна инъецироваться __block_scope__")
	}
}

func TestDownloadRequiresFrozenStatus(t *testing.T) {
	env := setupEnv(t)

	created, _ := env.workflow.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)

	// DRAFT: скачивание и код запрещены
	_, werr := env.workflow.Download(created.ReviewID, "любой", meta)
	if werr == nil || werr.StatusCode != http.StatusForbidden {
		t.Errorf("скачивание DRAFT: хотели 403, получили %v", werr)
	}
	_, werr = env.workflow.RequestApprovalCode(created.ReviewID, "sup-1", meta)
	if werr == nil || werr.StatusCode != http.StatusForbidden {
		t.Errorf("код для DRAFT: хотели 403, получили %v", werr)
	}
}

func TestRenderFailureKeepsTokenValid(t *testing.T) {
	env := setupEnv(t)
	wf := env.workflow

	created, _ := wf.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)
	id := created.ReviewID
	wf.Submit(id, "user-1", meta)
	code, _ := wf.RequestApprovalCode(id, "sup-1", meta)
	auth, werr := wf.Authorize(code.Code, "secret1", meta)
	if werr != nil {
		t.Fatalf("ошибка авторизации: %v", werr)
	}

	// Сбой рендеринга: токен остаётся действительным
	env.renderer.fail = true
	_, werr = wf.Download(id, auth.DownloadToken, meta)
	if werr == nil || werr.Code != apierrors.CodeRenderFailed {
		t.Fatalf("хотели RENDER_FAILED, получили %v", werr)
	}

	info, _ := wf.GetReviewInfo(id)
	if info.Status != model.StatusSubmitted {
		t.Errorf("после сбоя рендеринга статус должен остаться SUBMITTED, получили %s", info.Status)
	}

	// Повтор с тем же токеном проходит
	env.renderer.fail = false
	if _, werr := wf.Download(id, auth.DownloadToken, meta); werr != nil {
		t.Errorf("повтор после сбоя должен пройти: %v", werr)
	}
}

func TestCodeNotIssuedAfterDownload(t *testing.T) {
	env := setupEnv(t)
	wf := env.workflow

	created, _ := wf.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)
	id := created.ReviewID
	wf.Submit(id, "user-1", meta)

	// Пока ревизия в SUBMITTED, выдаётся два независимых кода
	code, _ := wf.RequestApprovalCode(id, "sup-1", meta)
	code2, werr := wf.RequestApprovalCode(id, "sup-1", meta)
	if werr != nil {
		t.Fatalf("второй код для SUBMITTED должен выдаваться: %v", werr)
	}
	auth, _ := wf.Authorize(code.Code, "secret1", meta)
	auth2, _ := wf.Authorize(code2.Code, "secret1", meta)

	if _, werr := wf.Download(id, auth.DownloadToken, meta); werr != nil {
		t.Fatalf("ошибка первого скачивания: %v", werr)
	}

	// После DOWNLOADED новый код не выдаётся
	_, werr = wf.RequestApprovalCode(id, "sup-1", meta)
	if werr == nil || werr.StatusCode != http.StatusForbidden {
		t.Errorf("код для DOWNLOADED: хотели 403, получили %v", werr)
	}

	// Токен, выданный до смены статуса, остаётся годным для скачивания
	if _, werr := wf.Download(id, auth2.DownloadToken, meta); werr != nil {
		t.Fatalf("ошибка повторного скачивания: %v", werr)
	}

	// Статус остаётся конечным, в audit log — запись о повторе
	info, _ := wf.GetReviewInfo(id)
	if info.Status != model.StatusDownloaded {
		t.Errorf("статус: хотели DOWNLOADED, получили %s", info.Status)
	}
	r, _ := env.reviews.Get(id)
	repeats := 0
	for _, e := range r.AuditLog {
		if e.Action == model.ActionDownload && e.Details == "повторное скачивание" {
			repeats++
		}
	}
	if repeats != 1 {
		t.Errorf("записей о повторном скачивании: хотели 1, получили %d", repeats)
	}
}

func TestAuthorizeFailuresAudited(t *testing.T) {
	env := setupEnv(t)
	wf := env.workflow

	created, _ := wf.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)
	id := created.ReviewID
	wf.Submit(id, "user-1", meta)
	code, _ := wf.RequestApprovalCode(id, "sup-1", meta)

	// Неизвестный код
	_, werr := wf.Authorize("NOSUCH00", "secret1", meta)
	if werr == nil || werr.Code != apierrors.CodeInvalidCode {
		t.Errorf("хотели INVALID_CODE, получили %v", werr)
	}

	// Неверный пароль оставляет запись authorize_failed
	wf.Authorize(code.Code, "wrong", meta)
	r, _ := env.reviews.Get(id)
	failed := 0
	for _, e := range r.AuditLog {
		if e.Action == model.ActionAuthorizeFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("записей authorize_failed: хотели 1, получили %d", failed)
	}

	// Нормализация ввода: регистр и пробелы
	lower := " " + code.Code + " "
	auth, werr := wf.Authorize(lower, "secret1", meta)
	if werr != nil {
		t.Fatalf("нормализованный код должен приниматься: %v", werr)
	}
	if auth.DownloadToken == "" {
		t.Error("токен не должен быть пустым")
	}
}

func TestListReviews(t *testing.T) {
	env := setupEnv(t)
	wf := env.workflow

	c1, _ := wf.CreateReview("contract", map[string]any{"Name": "A"}, "user-1", meta)
	c2, _ := wf.CreateReview("contract", map[string]any{"Name": "B"}, "user-2", meta)
	wf.Submit(c2.ReviewID, "user-2", meta)

	all, werr := wf.ListReviews("", "")
	if werr != nil {
		t.Fatalf("ошибка ListReviews: %v", werr)
	}
	if len(all) != 2 {
		t.Fatalf("хотели 2 ревизии, получили %d", len(all))
	}

	drafts, _ := wf.ListReviews("DRAFT", "")
	if len(drafts) != 1 || drafts[0].ReviewID != c1.ReviewID {
		t.Errorf("фильтр DRAFT: получили %d", len(drafts))
	}

	byUser, _ := wf.ListReviews("", "user-2")
	if len(byUser) != 1 || byUser[0].ReviewID != c2.ReviewID {
		t.Errorf("фильтр по автору: получили %d", len(byUser))
	}

	if _, werr := wf.ListReviews("bogus", ""); werr == nil || werr.StatusCode != http.StatusBadRequest {
		t.Errorf("некорректный статус: хотели 400, получили %v", werr)
	}
}

func TestGetSchemaAndSupervisors(t *testing.T) {
	env := setupEnv(t)

	ui, werr := env.workflow.GetSchema("contract")
	if werr != nil {
		t.Fatalf("ошибка GetSchema: %v", werr)
	}
	editable, ok := ui["editable_fields"].([]string)
	if !ok {
		t.Fatalf("editable_fields отсутствует: %v", ui)
	}
	if !slices.Contains(editable, "Name") || !slices.Contains(editable, "scope_custom") {
		t.Errorf("editable_fields: получили %v", editable)
	}

	if _, werr := env.workflow.GetSchema("nonexistent"); werr == nil || werr.Code != apierrors.CodeUnknownDocType {
		t.Errorf("хотели UNKNOWN_DOC_TYPE, получили %v", werr)
	}

	sups := env.workflow.Supervisors()
	if len(sups) != 1 || sups[0].ID != "sup-1" {
		t.Errorf("активные супервизоры: получили %d", len(sups))
	}
	if sups[0].PasswordHash != "" || sups[0].Password != "" {
		t.Error("секреты не должны отдаваться")
	}
}

func TestAuditLogNonDecreasing(t *testing.T) {
	env := setupEnv(t)
	wf := env.workflow

	created, _ := wf.CreateReview("contract", map[string]any{"Name": "Acme"}, "user-1", meta)
	id := created.ReviewID

	prev := 0
	check := func(step string) {
		r, _ := env.reviews.Get(id)
		if len(r.AuditLog) < prev {
			t.Errorf("%s: audit log сократился с %d до %d", step, prev, len(r.AuditLog))
		}
		prev = len(r.AuditLog)
	}

	check("создание")
	wf.UpdateData(id, map[string]any{"Name": "X"}, "user-1", meta)
	check("обновление")
	wf.UpdateData(id, map[string]any{"LockedField": "hack"}, "user-1", meta)
	check("отклонённое поле")
	wf.Submit(id, "user-1", meta)
	check("submit")
	wf.RequestApprovalCode(id, "sup-1", meta)
	check("код")
}
