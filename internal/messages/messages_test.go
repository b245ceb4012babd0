package messages

import (
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func localeKeys(t *testing.T, name string) []string {
	t.Helper()
	data, err := localesFS.ReadFile("locales/" + name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var m map[string]string
	if err := toml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestLocalesHaveSameKeys(t *testing.T) {
	ru := localeKeys(t, "ru.toml")
	en := localeKeys(t, "en.toml")
	if diff := cmp.Diff(ru, en); diff != "" {
		t.Fatalf("ru and en catalogs differ (-ru +en):\n%s", diff)
	}
}

func TestBundledCatalog(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(cat.Languages()); got != 2 {
		t.Fatalf("languages = %d, want 2", got)
	}

	ru := cat.For()
	if got := ru.Text(BtnBackMain); got != "↩️ В главное меню" {
		t.Fatalf("ru back button = %q", got)
	}
	en := cat.For("en-US")
	if got := en.Text(BtnBackMain); got != "↩️ Main menu" {
		t.Fatalf("en back button = %q", got)
	}

	got := en.Format(LifePathResult, map[string]any{"Number": 7, "Text": "seven"})
	if !strings.Contains(got, "Life Path number: 7") || !strings.HasSuffix(got, "seven") {
		t.Fatalf("formatted result = %q", got)
	}
	if got := en.Text("no_such_id"); got != "no_such_id" {
		t.Fatalf("missing id = %q, want the id", got)
	}
}

func TestVariants(t *testing.T) {
	cat, err := New("ru")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := cat.Variants(BtnLifePath)
	sort.Strings(got)
	want := []string{"🧮 Life Path number", "🧮 Рассчитать Число Судьбы"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("variants mismatch (-want +got):\n%s", diff)
	}
	if got := cat.Variants("no_such_id"); len(got) != 0 {
		t.Fatalf("variants of missing id = %v", got)
	}
}

func TestLoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"l/en.toml": {Data: []byte(`greet = "hi {{.Name}}"`)},
		"l/de.toml": {Data: []byte(`greet = "hallo {{.Name}}"`)},
	}
	cat, err := Load(fsys, "l", "en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cat.For("de").Format("greet", map[string]any{"Name": "Ann"}); got != "hallo Ann" {
		t.Fatalf("de greet = %q", got)
	}
	if got := cat.For("fr").Format("greet", map[string]any{"Name": "Ann"}); got != "hi Ann" {
		t.Fatalf("fallback greet = %q", got)
	}

	if _, err := Load(fstest.MapFS{}, "l", "en"); err == nil {
		t.Fatal("expected error without locale files")
	}
	if _, err := Load(fsys, "l", "not a tag!"); err == nil {
		t.Fatal("expected error for invalid fallback")
	}
}
