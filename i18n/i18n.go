// Package i18n translates termkit's own user-facing strings with a
// gettext catalog embedded in the binary.
//
//	i18n.Init("") // language from LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	logInfo(i18n.T("Project"))
//	logInfo(i18n.N("%d fuzzy entry ignored", "%d fuzzy entries ignored", n), n)
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Catalogs live at locales/<lang>/LC_MESSAGES/termkit.po.
//
//go:embed all:locales
var locales embed.FS

const domain = "termkit"

var (
	po   *gotext.Locale
	lang string
)

// Init loads the catalog for lang, or for the language of the
// environment when lang is empty. Call it once before T or N.
func Init(l string) {
	if l == "" {
		l = languageFromEnv(os.Getenv)
	}
	lang = l
	po = gotext.NewLocaleFSWithPath(l, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the language passed to Init after environment lookup.
func Lang() string { return lang }

// T returns the translation of msgid, or msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N returns the plural form of a message for n, following the catalog's
// Plural-Forms rule. Without a catalog the English rule applies.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// languageFromEnv applies the gettext lookup order LANGUAGE, LC_ALL,
// LC_MESSAGES, LANG. Only the first LANGUAGE entry is used and codeset
// suffixes are dropped; "C" and "POSIX" are skipped. The fallback is
// "en".
func languageFromEnv(getenv func(string) string) string {
	for _, name := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := getenv(name)
		if name == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		val, _, _ = strings.Cut(val, ".")
		switch val {
		case "", "C", "POSIX":
			continue
		}
		return val
	}
	return "en"
}
