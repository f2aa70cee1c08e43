package i18n

import "testing"

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLanguageFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "LANGUAGE has highest priority",
			env:  map[string]string{"LANGUAGE": "ru_RU.UTF-8:en_US", "LC_ALL": "de_DE.UTF-8"},
			want: "ru_RU",
		},
		{
			name: "C and POSIX are skipped",
			env:  map[string]string{"LANGUAGE": "C", "LC_ALL": "POSIX", "LC_MESSAGES": "fr_FR.UTF-8"},
			want: "fr_FR",
		},
		{
			name: "LANG is last",
			env:  map[string]string{"LANG": "pt_BR.UTF-8"},
			want: "pt_BR",
		},
		{
			name: "falls back to en",
			env:  map[string]string{},
			want: "en",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := languageFromEnv(envMap(tc.env)); got != tc.want {
				t.Fatalf("languageFromEnv() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Project"); got != "Project" {
		t.Fatalf("T fallback = %q, want %q", got, "Project")
	}
	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}
	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestEmbeddedFrenchCatalog(t *testing.T) {
	oldPo, oldLang := po, lang
	t.Cleanup(func() { po, lang = oldPo, oldLang })

	Init("fr")
	if Lang() != "fr" {
		t.Fatalf("Lang() = %q", Lang())
	}
	if got := T("Project"); got != "Projet" {
		t.Fatalf("T(Project) = %q, want %q", got, "Projet")
	}
	if got := N("%d fuzzy entry ignored", "%d fuzzy entries ignored", 3); got != "%d entrées approximatives ignorées" {
		t.Fatalf("N plural = %q", got)
	}
	if got := T("untranslated message"); got != "untranslated message" {
		t.Fatalf("T passthrough = %q", got)
	}
}
