package dialogue

import "testing"

// TestLineText 测试多语言文本回退
func TestLineText(t *testing.T) {
	tests := []struct {
		name     string
		texts    map[string]string
		lang     string
		fallback string
		want     string
	}{
		{"精确匹配", map[string]string{"en": "Hi", "ru": "Привет"}, "ru", "en", "Привет"},
		{"回退到 fallback", map[string]string{"en": "Hi"}, "fr", "en", "Hi"},
		{"fallback 不存在时取任意语言", map[string]string{"en": "Hi"}, "ru", "es", "Hi"},
		{"空文本视为缺失", map[string]string{"ru": "", "en": "Hi"}, "ru", "en", "Hi"},
		{"任意语言按代码排序", map[string]string{"fr": "Salut", "es": "Hola"}, "ru", "en", "Hola"},
		{"空映射", map[string]string{}, "en", "en", ""},
		{"nil 映射", nil, "en", "en", ""},
		{"语言代码为空", map[string]string{"en": "Hi"}, "", "", "Hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := &Line{Texts: tt.texts}
			if got := line.TextWithFallback(tt.lang, tt.fallback); got != tt.want {
				t.Errorf("TextWithFallback(%q, %q) = %q, want %q", tt.lang, tt.fallback, got, tt.want)
			}
		})
	}
}

// TestLineTextDefaultFallback 测试 Text 使用默认回退语言 "en"
func TestLineTextDefaultFallback(t *testing.T) {
	line := &Line{Texts: map[string]string{"en": "Hi", "es": "Hola"}}

	if got := line.Text("fr"); got != "Hi" {
		t.Errorf("Text(\"fr\") = %q, want %q", got, "Hi")
	}
	if got := line.Text("es"); got != "Hola" {
		t.Errorf("Text(\"es\") = %q, want %q", got, "Hola")
	}
}

// TestParseKind 测试对话类型的宽松解析
func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"Story", KindStory},
		{"story", KindStory},
		{" STORY ", KindStory},
		{"Idle", KindIdle},
		{"persistent", KindIdle},
		{"", KindIdle},
	}

	for _, tt := range tests {
		if got := ParseKind(tt.input); got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindStory.String() != "Story" || KindIdle.String() != "Idle" {
		t.Errorf("unexpected Kind strings: %s, %s", KindStory, KindIdle)
	}
	if Kind(42).String() != "Unknown" {
		t.Errorf("Kind(42).String() = %s, want Unknown", Kind(42))
	}
}

func TestLineLanguages(t *testing.T) {
	line := &Line{Texts: map[string]string{"ru": "a", "en": "b", "es": "c"}}
	got := line.Languages()
	want := []string{"en", "es", "ru"}
	if len(got) != len(want) {
		t.Fatalf("Languages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Languages()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
