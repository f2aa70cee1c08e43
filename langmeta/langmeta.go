// Package langmeta provides language display metadata (native names and
// emoji flags) for CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns the native name and flag of a language code, accepting
// variants like pt_BR and pt-BR. The flag follows the explicit region, or
// the most likely one. Unknown codes are returned as their own name.
func Resolve(lang string) Meta {
	tag, err := language.Parse(canonicalize(lang))
	if err != nil {
		return Meta{Name: lang}
	}
	name := display.Self.Name(tag)
	if name == "" {
		name = lang
	}
	var flag string
	if region, conf := tag.Region(); conf != language.No {
		flag = FlagFromRegion(region.String())
	}
	return Meta{Name: name, Flag: flag}
}

// FlagFromRegion turns a two-letter region code into its emoji flag, or
// "" for anything else.
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var sb strings.Builder
	for _, r := range strings.ToUpper(region) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		sb.WriteRune(0x1F1E6 + r - 'A')
	}
	return sb.String()
}
