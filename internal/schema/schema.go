// Пакет schema — схемы типов документов.
//
// Схема описывает поля документа (тип, редактируемость, правила
// валидации) и блоки контента, к которым сотрудник может добавить
// собственное дополнение. Схемы читаются из JSON-файлов
// <schemas_dir>/<doc_type>.json и кешируются загрузчиком.
package schema

import "fmt"

// FieldKind — закрытый набор типов полей.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindBoolean FieldKind = "boolean"
	KindDate    FieldKind = "date"
	KindEnum    FieldKind = "enum"
	KindList    FieldKind = "list"
)

// AppendMode — правило добавления пользовательского дополнения к блоку.
type AppendMode string

const (
	// AppendNewline — base + "\n" + custom
	AppendNewline AppendMode = "newline"
	// AppendInline — base + " " + custom
	AppendInline AppendMode = "inline"
	// AppendLabelled — base + "\n" + label + " " + custom
	AppendLabelled AppendMode = "labelled"
)

// CustomFieldType — вид контента пользовательского поля блока.
type CustomFieldType string

const (
	// CustomText — обычный текст, вся разметка вырезается
	CustomText CustomFieldType = "text"
	// CustomRichtextLimited — ограниченный HTML (см. пакет validation)
	CustomRichtextLimited CustomFieldType = "richtext_limited"
)

// Rules — дополнительные правила валидации значения поля.
type Rules struct {
	// Pattern — регулярное выражение, которому должно соответствовать значение
	Pattern string `json:"pattern,omitempty"`
	// MinLength / MaxLength — границы длины строки (в символах)
	MinLength *int `json:"min_length,omitempty"`
	MaxLength *int `json:"max_length,omitempty"`
	// Min / Max — числовые границы
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ItemSpec — требования к полю элемента списка.
type ItemSpec struct {
	Type     FieldKind `json:"type,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// FieldSpec — описание одного поля документа.
type FieldSpec struct {
	// Type — тип поля. По умолчанию string.
	Type FieldKind `json:"type,omitempty"`
	// Label — отображаемое имя поля для UI
	Label string `json:"label,omitempty"`
	// Section — секция формы
	Section string `json:"section,omitempty"`
	// Editable — поле входит в whitelist редактируемых
	Editable bool `json:"editable,omitempty"`
	// Required — поле обязательно
	Required bool `json:"required,omitempty"`
	// EnumValues — допустимые значения для type=enum
	EnumValues []any `json:"enum_values,omitempty"`
	// ItemSchema — требования к элементам для type=list
	ItemSchema map[string]ItemSpec `json:"item_schema,omitempty"`
	// Validation — дополнительные правила
	Validation *Rules `json:"validation,omitempty"`
}

// Kind возвращает тип поля с учётом умолчания.
func (f *FieldSpec) Kind() FieldKind {
	if f.Type == "" {
		return KindString
	}
	return f.Type
}

// BlockDefinition — блок контента, объявленный схемой.
// Блок соединяет системный фрагмент шаблона с необязательным
// дополнением сотрудника по правилу AppendMode.
type BlockDefinition struct {
	// Key — ключ блока. Заполняется при загрузке схемы.
	Key string `json:"-"`
	// InnerTemplate — фрагмент шаблона с {{ переменными }}.
	// Может задаваться схемой или извлекаться из файла шаблона.
	InnerTemplate string `json:"inner_template,omitempty"`
	// CustomField — имя поля дополнения. По умолчанию <key>_custom.
	CustomField string `json:"custom_field,omitempty"`
	// AppendMode — правило соединения. По умолчанию newline.
	AppendMode AppendMode `json:"append_mode,omitempty"`
	// Label — подпись для режима labelled
	Label string `json:"label,omitempty"`
	// CustomType — вид контента дополнения. По умолчанию text.
	CustomType CustomFieldType `json:"custom_type,omitempty"`
	// MaxLength — предел длины дополнения после санитизации.
	// По умолчанию 2000 символов.
	MaxLength int `json:"max_length,omitempty"`
	// Required — дополнение обязательно
	Required bool `json:"required,omitempty"`
}

// applyDefaults заполняет умолчания после загрузки из JSON.
func (b *BlockDefinition) applyDefaults(key string) {
	b.Key = key
	if b.CustomField == "" {
		b.CustomField = key + "_custom"
	}
	if b.AppendMode == "" {
		b.AppendMode = AppendNewline
	}
	if b.CustomType == "" {
		b.CustomType = CustomText
	}
	if b.MaxLength == 0 {
		b.MaxLength = 2000
	}
}

// Schema — полная схема типа документа.
type Schema struct {
	// DocType — тип документа, совпадает с именем файла схемы
	DocType string `json:"doc_type,omitempty"`
	// Fields — описания полей по именам
	Fields map[string]*FieldSpec `json:"fields"`
	// Blocks — блоки контента по ключам
	Blocks map[string]*BlockDefinition `json:"blocks,omitempty"`
	// Sections — порядок секций формы для UI
	Sections []any `json:"sections,omitempty"`
}

// EditableFields возвращает whitelist редактируемых полей:
// поля с editable=true плюс все пользовательские поля блоков
// (последние редактируемы неявно).
func (s *Schema) EditableFields() []string {
	fields := make([]string, 0, len(s.Fields)+len(s.Blocks))
	for name, spec := range s.Fields {
		if spec.Editable {
			fields = append(fields, name)
		}
	}
	fields = append(fields, s.BlockCustomFields()...)
	return fields
}

// IsEditable проверяет, входит ли поле в whitelist.
func (s *Schema) IsEditable(fieldName string) bool {
	if spec, ok := s.Fields[fieldName]; ok && spec.Editable {
		return true
	}
	return s.BlockForCustomField(fieldName) != nil
}

// BlockCustomFields возвращает имена пользовательских полей всех блоков.
func (s *Schema) BlockCustomFields() []string {
	fields := make([]string, 0, len(s.Blocks))
	for _, block := range s.Blocks {
		fields = append(fields, block.CustomField)
	}
	return fields
}

// BlockForCustomField возвращает блок, которому принадлежит
// пользовательское поле, или nil.
func (s *Schema) BlockForCustomField(fieldName string) *BlockDefinition {
	for _, block := range s.Blocks {
		if block.CustomField == fieldName {
			return block
		}
	}
	return nil
}

// ForUI возвращает схему в виде, пригодном для фронтенда:
// поля, секции, whitelist и конфигурация блоков одним объектом.
func (s *Schema) ForUI() map[string]any {
	return map[string]any{
		"doc_type":            s.DocType,
		"fields":              s.Fields,
		"sections":            s.Sections,
		"editable_fields":     s.EditableFields(),
		"blocks":              s.Blocks,
		"block_custom_fields": s.BlockCustomFields(),
	}
}

// validate проверяет целостность загруженной схемы.
func (s *Schema) validate() error {
	for name, spec := range s.Fields {
		switch spec.Kind() {
		case KindString, KindBoolean, KindDate, KindEnum, KindList:
		default:
			return fmt.Errorf("поле %q: неизвестный тип %q", name, spec.Type)
		}
		if spec.Kind() == KindEnum && len(spec.EnumValues) == 0 {
			return fmt.Errorf("поле %q: тип enum требует enum_values", name)
		}
	}
	for key, block := range s.Blocks {
		switch block.AppendMode {
		case AppendNewline, AppendInline, AppendLabelled:
		default:
			return fmt.Errorf("блок %q: неизвестный append_mode %q", key, block.AppendMode)
		}
		switch block.CustomType {
		case CustomText, CustomRichtextLimited:
		default:
			return fmt.Errorf("блок %q: неизвестный custom_type %q", key, block.CustomType)
		}
	}
	return nil
}
