// Пакет validation — whitelist-валидация обновлений данных ревизии.
//
// Валидатор — единственная точка, решающая, какие поля из запроса
// сотрудника попадают в данные ревизии. Нередактируемые поля
// отфильтровываются и отмечаются как unauthorized, значения
// редактируемых проверяются по правилам схемы, пользовательские
// поля блоков дополнительно санитизируются от небезопасного HTML.
package validation

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// allowedTags — разрешённые теги для richtext_limited.
// Атрибуты вырезаются безусловно у всех тегов.
var allowedTags = map[string]bool{
	"p": true, "b": true, "i": true, "u": true, "br": true,
	"ul": true, "ol": true, "li": true, "strong": true, "em": true,
}

// voidTags — теги без закрывающей пары. Запрещённый void-тег
// вырезается без подавления последующего текста.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true,
	"link": true, "area": true, "base": true, "col": true,
	"embed": true, "source": true, "track": true, "wbr": true,
}

// SanitizeLimited очищает HTML для полей richtext_limited.
// Разрешённые теги сохраняются без атрибутов, запрещённые удаляются
// вместе со своим содержимым (текст внутри не поднимается наверх).
func SanitizeLimited(input string) string {
	if input == "" {
		return ""
	}

	var out strings.Builder
	tok := xhtml.NewTokenizer(strings.NewReader(input))

	// Глубина открытых запрещённых тегов. Пока > 0,
	// весь контент (текст и вложенные теги) подавляется.
	suppressed := 0

	for {
		tt := tok.Next()
		switch tt {
		case xhtml.ErrorToken:
			return out.String()

		case xhtml.TextToken:
			if suppressed == 0 {
				out.WriteString(html.EscapeString(string(tok.Text())))
			}

		case xhtml.StartTagToken:
			name, _ := tok.TagName()
			tag := strings.ToLower(string(name))
			switch {
			case suppressed > 0:
				if !allowedTags[tag] && !voidTags[tag] {
					suppressed++
				}
			case allowedTags[tag]:
				writeTag(&out, tag, false)
			case !voidTags[tag]:
				suppressed++
			}

		case xhtml.EndTagToken:
			name, _ := tok.TagName()
			tag := strings.ToLower(string(name))
			if allowedTags[tag] {
				if suppressed == 0 {
					writeTag(&out, tag, true)
				}
			} else if suppressed > 0 {
				suppressed--
			}

		case xhtml.SelfClosingTagToken:
			name, _ := tok.TagName()
			tag := strings.ToLower(string(name))
			if suppressed == 0 && allowedTags[tag] {
				writeTag(&out, tag, false)
				if tag != "br" {
					writeTag(&out, tag, true)
				}
			}

		case xhtml.CommentToken, xhtml.DoctypeToken:
			// Комментарии и doctype не переносятся
		}
	}
}

func writeTag(out *strings.Builder, tag string, closing bool) {
	if tag == "br" {
		out.WriteString("<br>")
		return
	}
	if closing {
		out.WriteString("</")
	} else {
		out.WriteString("<")
	}
	out.WriteString(tag)
	out.WriteString(">")
}

// StripTags удаляет всю разметку и возвращает только текст
// с декодированными HTML-сущностями. Для полей custom_type=text.
func StripTags(input string) string {
	if input == "" {
		return ""
	}

	var out strings.Builder
	tok := xhtml.NewTokenizer(strings.NewReader(input))

	for {
		tt := tok.Next()
		if tt == xhtml.ErrorToken {
			return strings.TrimSpace(out.String())
		}
		if tt == xhtml.TextToken {
			out.Write(tok.Text())
		}
	}
}
