package pofile

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

const defaultPluralForms = "nplurals=2; plural=(n != 1);"

// pluralRules lists gettext Plural-Forms values by language base.
var pluralRules = []struct {
	rule  string
	bases []string
}{
	{"nplurals=1; plural=0;", []string{"ja", "ko", "zh", "vi", "th", "id", "ms"}},
	{"nplurals=2; plural=(n > 1);", []string{"fr", "pt"}},
	{"nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);", []string{"ru", "uk", "be", "hr", "sr", "bs"}},
	{"nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);", []string{"pl"}},
	{"nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);", []string{"cs", "sk"}},
	{"nplurals=3; plural=(n==1 ? 0 : (n==0 || (n%100 > 0 && n%100 < 20)) ? 1 : 2);", []string{"ro"}},
	{"nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);", []string{"ar"}},
}

// PluralFormsForLang returns the Plural-Forms header value for a language
// code such as "ru" or "pt_BR"; empty for a template.
func PluralFormsForLang(lang string) string {
	if lang == "" {
		return ""
	}
	base := lang
	if tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-")); err == nil {
		b, _ := tag.Base()
		base = b.String()
	} else if i := strings.IndexAny(lang, "_-"); i > 0 {
		base = lang[:i]
	}
	for _, r := range pluralRules {
		if slices.Contains(r.bases, base) {
			return r.rule
		}
	}
	return defaultPluralForms
}
