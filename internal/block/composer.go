// Пакет block — компоновка блоков контента.
//
// Блок соединяет системный фрагмент шаблона (с {{ переменными }},
// подставляемыми из данных ревизии) и необязательное дополнение
// сотрудника по правилу append_mode. Итог каждого блока публикуется
// синтетической переменной __block_<key>__, которую внешний рендерер
// подставляет обычным проходом, без особой логики для блоков.
package block

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
)

// varPattern — минимальная грамматика подстановки {{ имя }}.
// Без условий, циклов и вложенных выражений: конфликт с полноценным
// движком рендеринга ниже по конвейеру исключён намеренно.
var varPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// RenderInner подставляет {{ переменные }} во фрагмент блока.
// Отсутствующие и null-переменные подставляются пустой строкой.
func RenderInner(fragment string, data map[string]any) string {
	return varPattern.ReplaceAllStringFunc(fragment, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		value, ok := data[name]
		if !ok || value == nil {
			return ""
		}
		return stringify(value)
	})
}

// Combine соединяет базовый контент блока с дополнением сотрудника.
// Пустое или пробельное дополнение возвращает base как есть,
// без разделителей и подписи.
func Combine(base, custom string, mode schema.AppendMode, label string) string {
	if strings.TrimSpace(custom) == "" {
		return base
	}
	custom = strings.TrimSpace(custom)

	switch mode {
	case schema.AppendNewline:
		return base + "\n" + custom
	case schema.AppendInline:
		return base + " " + custom
	case schema.AppendLabelled:
		if label != "" {
			return base + "\n" + label + " " + custom
		}
		return base + "\n" + custom
	}

	return base
}

// BlockVariableName возвращает имя синтетической переменной блока.
func BlockVariableName(key string) string {
	return "__block_" + key + "__"
}

// GenerateVariables вычисляет итоговый контент каждого блока
// (RenderInner + Combine) и возвращает карту синтетических переменных
// __block_<key>__ для инъекции в данные перед рендерингом.
func GenerateVariables(blocks map[string]*schema.BlockDefinition, data map[string]any) map[string]string {
	variables := make(map[string]string, len(blocks))

	for key, def := range blocks {
		base := RenderInner(def.InnerTemplate, data)

		custom := ""
		if v, ok := data[def.CustomField]; ok && v != nil {
			custom = stringify(v)
		}

		variables[BlockVariableName(key)] = Combine(base, custom, def.AppendMode, def.Label)
	}

	return variables
}

// stringify приводит значение данных к строке для подстановки.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		// Списки и объекты в подстановку не попадают осмысленно,
		// но и падать на них нельзя
		return ""
	}
}
