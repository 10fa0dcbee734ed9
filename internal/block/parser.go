package block

import (
	"regexp"
	"strings"

	"github.com/JimmyYuu29/Carta-Manifestacion-Control/internal/schema"
)

// blockPattern — якорный синтаксис блока в шаблоне.
var blockPattern = regexp.MustCompile(`(?s)\[\[BLOCK:(\w+)\]\](.*?)\[\[/BLOCK\]\]`)

// ParsedBlock — блок, найденный в тексте шаблона.
type ParsedBlock struct {
	// Key — ключ блока
	Key string
	// InnerTemplate — содержимое между [[BLOCK:key]] и [[/BLOCK]]
	InnerTemplate string
	// Start, End — позиции всего вхождения в шаблоне
	Start int
	End   int
}

// ParseTemplate находит все блоки [[BLOCK:key]]...[[/BLOCK]] в шаблоне.
func ParseTemplate(template string) []ParsedBlock {
	matches := blockPattern.FindAllStringSubmatchIndex(template, -1)
	blocks := make([]ParsedBlock, 0, len(matches))

	for _, m := range matches {
		blocks = append(blocks, ParsedBlock{
			Key:           template[m[2]:m[3]],
			InnerTemplate: strings.TrimSpace(template[m[4]:m[5]]),
			Start:         m[0],
			End:           m[1],
		})
	}

	return blocks
}

// ExtractKeys возвращает ключи всех блоков шаблона.
func ExtractKeys(template string) []string {
	parsed := ParseTemplate(template)
	keys := make([]string, len(parsed))
	for i, b := range parsed {
		keys[i] = b.Key
	}
	return keys
}

// PrepareTemplate заменяет каждое вхождение [[BLOCK:key]]...[[/BLOCK]]
// на плейсхолдер {{ __block_key__ }} и заполняет InnerTemplate
// в определениях блоков содержимым из шаблона. После этого обычная
// подстановка переменных рендерера обрабатывает блоки сама.
func PrepareTemplate(template string, defs map[string]*schema.BlockDefinition) string {
	parsed := ParseTemplate(template)

	// Замены идут с конца, чтобы позиции оставались корректными
	result := template
	for i := len(parsed) - 1; i >= 0; i-- {
		b := parsed[i]
		if def, ok := defs[b.Key]; ok && def.InnerTemplate == "" {
			def.InnerTemplate = b.InnerTemplate
		}
		placeholder := "{{ " + BlockVariableName(b.Key) + " }}"
		result = result[:b.Start] + placeholder + result[b.End:]
	}

	return result
}
