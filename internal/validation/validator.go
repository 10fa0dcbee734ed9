package validation

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
)

// Коды ошибок валидации.
const (
	CodeRequired        = "required"
	CodeTypeError       = "type_error"
	CodeValidationError = "validation_error"
)

// Форматы дат, принимаемые полями типа date.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// ValidationError — ошибка валидации одного поля.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result — итог валидации обновления.
// Ошибки и unauthorized-поля возвращаются как данные, не как сбой:
// частичное обновление может сообщить «3 принято, 2 отклонено,
// 1 невалидно» одним ответом.
type Result struct {
	// Valid — ни одно авторизованное поле не провалило валидацию
	Valid bool `json:"valid"`
	// Errors — ошибки валидации по полям
	Errors []ValidationError `json:"errors"`
	// Filtered — только редактируемые поля, прошедшие валидацию,
	// с санитизированными значениями
	Filtered map[string]any `json:"filtered"`
	// Unauthorized — имена полей, отклонённых whitelist.
	// Вызывающий обязан записать каждое в audit log.
	Unauthorized []string `json:"unauthorized"`
}

// Validator — валидатор обновлений по схеме типа документа.
type Validator struct {
	loader *schema.Loader
	logger *slog.Logger
}

// New создаёт валидатор поверх загрузчика схем.
func New(loader *schema.Loader, logger *slog.Logger) *Validator {
	return &Validator{
		loader: loader,
		logger: logger.With(slog.String("component", "validator")),
	}
}

// EditableFields возвращает whitelist редактируемых полей типа документа.
func (v *Validator) EditableFields(docType string) ([]string, error) {
	s, err := v.loader.Load(docType)
	if err != nil {
		return nil, err
	}
	return s.EditableFields(), nil
}

// ValidateUpdate проверяет обновление со строгим whitelist:
// нередактируемые поля попадают в Unauthorized и никогда в Filtered,
// значения редактируемых проверяются по схеме, пользовательские поля
// блоков санитизируются. Ошибка возвращается только если схему
// не удалось загрузить.
func (v *Validator) ValidateUpdate(docType string, changes map[string]any) (*Result, error) {
	s, err := v.loader.Load(docType)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Errors:       []ValidationError{},
		Filtered:     make(map[string]any),
		Unauthorized: []string{},
	}

	// Детерминированный порядок обработки полей
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := changes[name]

		if !s.IsEditable(name) {
			result.Unauthorized = append(result.Unauthorized, name)
			continue
		}

		ok, msg, sanitized := v.validateFieldValue(s, name, value)
		if !ok {
			result.Errors = append(result.Errors, ValidationError{
				Field:   name,
				Message: msg,
				Code:    CodeValidationError,
			})
			continue
		}
		result.Filtered[name] = sanitized
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// ValidateComplete проверяет полный набор данных (при создании ревизии):
// все поля схемы, не только редактируемые. Whitelist не применяется.
func (v *Validator) ValidateComplete(docType string, data map[string]any) (*Result, error) {
	s, err := v.loader.Load(docType)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Errors:       []ValidationError{},
		Filtered:     data,
		Unauthorized: []string{},
	}

	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := s.Fields[name]
		value := data[name]

		if spec.Required && isEmpty(value) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("поле %q обязательно", name),
				Code:    CodeRequired,
			})
			continue
		}

		if !isEmpty(value) {
			if ok, msg, _ := v.validateFieldValue(s, name, value); !ok {
				result.Errors = append(result.Errors, ValidationError{
					Field:   name,
					Message: msg,
					Code:    CodeValidationError,
				})
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// validateFieldValue проверяет значение одного поля.
// Возвращает (валидно, сообщение об ошибке, санитизированное значение).
func (v *Validator) validateFieldValue(s *schema.Schema, name string, value any) (bool, string, any) {
	// Пользовательские поля блоков идут через санитизацию
	if block := s.BlockForCustomField(name); block != nil {
		return validateBlockCustomField(name, value, block)
	}

	spec, ok := s.Fields[name]
	if !ok {
		return false, fmt.Sprintf("неизвестное поле %q", name), value
	}

	if spec.Required && isEmpty(value) {
		return false, fmt.Sprintf("поле %q обязательно", name), value
	}
	if isEmpty(value) {
		return true, "", value
	}

	if ok, msg := validateKind(name, value, spec); !ok {
		return false, msg, value
	}

	if spec.Validation != nil {
		if ok, msg := validateRules(name, value, spec.Validation); !ok {
			return false, msg, value
		}
	}

	return true, "", value
}

// validateBlockCustomField санитизирует и проверяет дополнение блока.
// Предел длины применяется к результату санитизации, не к сырому вводу.
func validateBlockCustomField(name string, value any, block *schema.BlockDefinition) (bool, string, any) {
	if isEmpty(value) {
		if block.Required {
			return false, fmt.Sprintf("поле %q обязательно", name), value
		}
		return true, "", value
	}

	str, ok := value.(string)
	if !ok {
		return false, fmt.Sprintf("поле %q должно быть строкой", name), value
	}

	var sanitized string
	if block.CustomType == schema.CustomRichtextLimited {
		sanitized = SanitizeLimited(str)
	} else {
		sanitized = StripTags(str)
	}

	if utf8.RuneCountInString(sanitized) > block.MaxLength {
		return false, fmt.Sprintf("поле %q не длиннее %d символов", name, block.MaxLength), sanitized
	}

	return true, "", sanitized
}

// validateKind проверяет значение по типу поля. Закрытый набор типов,
// по одной ветке на вариант.
func validateKind(name string, value any, spec *schema.FieldSpec) (bool, string) {
	switch spec.Kind() {
	case schema.KindString:
		if _, ok := value.(string); !ok {
			return false, fmt.Sprintf("поле %q должно быть строкой", name)
		}

	case schema.KindBoolean:
		if _, ok := value.(bool); !ok {
			return false, fmt.Sprintf("поле %q должно быть булевым", name)
		}

	case schema.KindDate:
		str, ok := value.(string)
		if !ok {
			return false, fmt.Sprintf("поле %q должно быть датой", name)
		}
		if !isValidDate(str) {
			return false, fmt.Sprintf("поле %q должно быть датой (YYYY-MM-DD или DD/MM/YYYY)", name)
		}

	case schema.KindEnum:
		for _, allowed := range spec.EnumValues {
			if value == allowed {
				return true, ""
			}
		}
		return false, fmt.Sprintf("поле %q должно быть одним из: %v", name, spec.EnumValues)

	case schema.KindList:
		items, ok := value.([]any)
		if !ok {
			return false, fmt.Sprintf("поле %q должно быть списком", name)
		}
		if len(spec.ItemSchema) > 0 {
			for i, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					return false, fmt.Sprintf("элемент %d поля %q должен быть объектом", i, name)
				}
				for itemField, itemSpec := range spec.ItemSchema {
					if itemSpec.Required {
						if _, present := obj[itemField]; !present {
							return false, fmt.Sprintf("элемент %d поля %q: отсутствует обязательное поле %q", i, name, itemField)
						}
					}
				}
			}
		}
	}

	return true, ""
}

// validateRules проверяет дополнительные правила схемы.
func validateRules(name string, value any, rules *schema.Rules) (bool, string) {
	str, ok := value.(string)
	if !ok {
		str = fmt.Sprintf("%v", value)
	}

	if rules.Pattern != "" {
		// Соответствие проверяется от начала строки
		re, err := regexp.Compile("^(?:" + rules.Pattern + ")")
		if err != nil {
			return false, fmt.Sprintf("поле %q: некорректный pattern в схеме", name)
		}
		if !re.MatchString(str) {
			return false, fmt.Sprintf("поле %q не соответствует требуемому формату", name)
		}
	}

	length := utf8.RuneCountInString(str)
	if rules.MinLength != nil && length < *rules.MinLength {
		return false, fmt.Sprintf("поле %q не короче %d символов", name, *rules.MinLength)
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return false, fmt.Sprintf("поле %q не длиннее %d символов", name, *rules.MaxLength)
	}

	// Числовые границы проверяются только для числовых значений
	if rules.Min != nil || rules.Max != nil {
		if num, err := strconv.ParseFloat(str, 64); err == nil {
			if rules.Min != nil && num < *rules.Min {
				return false, fmt.Sprintf("поле %q не меньше %v", name, *rules.Min)
			}
			if rules.Max != nil && num > *rules.Max {
				return false, fmt.Sprintf("поле %q не больше %v", name, *rules.Max)
			}
		}
	}

	return true, ""
}

func isValidDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isEmpty(value any) bool {
	return value == nil || value == ""
}
