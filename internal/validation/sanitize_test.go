package validation

import (
	"strings"
	"testing"
)

func TestSanitizeLimited(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"пустая строка", "", ""},
		{"обычный текст", "привет", "привет"},
		{"разрешённый тег", "<b>ok</b>", "<b>ok</b>"},
		{"script удаляется с содержимым", "<script>alert(1)</script><b>ok</b>", "<b>ok</b>"},
		{"атрибуты вырезаются", `<p onclick="x()">hi</p>`, "<p>hi</p>"},
		{"div удаляется с текстом", "<div>внутри</div>после", "после"},
		{"вложенный разрешённый внутри запрещённого", "<div><b>x</b></div>y", "y"},
		{"запрещённый void без подавления", `<img src="x">текст`, "текст"},
		{"br самозакрывающийся", "a<br/>b", "a<br>b"},
		{"br обычный", "a<br>b", "a<br>b"},
		{"список", "<ul><li>a</li><li>b</li></ul>", "<ul><li>a</li><li>b</li></ul>"},
		{"strong и em", "<strong>a</strong><em>b</em>", "<strong>a</strong><em>b</em>"},
		{"регистр тегов", "<B>x</B>", "<b>x</b>"},
		{"style удаляется с содержимым", "<style>body{}</style>ok", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeLimited(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeLimited(%q): хотели %q, получили %q", tt.input, tt.want, got)
			}
		})
	}
}

func TestSanitizeLimitedNoScriptLeak(t *testing.T) {
	inputs := []string{
		`<script>alert(1)</script>`,
		`<SCRIPT>alert(1)</SCRIPT>`,
		`<b onmouseover="alert(1)">x</b>`,
		`<p><script>alert(1)</script>y</p>`,
	}
	for _, input := range inputs {
		got := SanitizeLimited(input)
		if strings.Contains(got, "script") || strings.Contains(got, "alert") || strings.Contains(got, "onmouseover") {
			t.Errorf("утечка опасного контента из %q: %q", input, got)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"просто текст", "просто текст"},
		{"<b>жирный</b> текст", "жирный текст"},
		{"<div><p>a</p></div>", "a"},
		{"&amp;&lt;&gt;", "&<>"},
		{"  <p>  x  </p>  ", "x"},
	}

	for _, tt := range tests {
		got := StripTags(tt.input)
		if got != tt.want {
			t.Errorf("StripTags(%q): хотели %q, получили %q", tt.input, tt.want, got)
		}
	}
}
