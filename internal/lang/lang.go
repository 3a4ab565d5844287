// Package lang holds the bot's message catalogs. Lookup falls back to
// Russian, the default locale of the deployment, when a key is missing
// from the requested catalog.
package lang

import "fmt"

// Fallback is the locale used when a chat has no stored preference or
// the requested catalog lacks a key.
const Fallback = "ru"

// Supported locale codes.
var Locales = []string{"en", "ru", "ua"}

var catalogs = map[string]map[string]string{
	"en": en,
	"ru": ru,
	"ua": ua,
}

// T returns the message for key in the given locale.
func T(locale, key string) string {
	if c, ok := catalogs[locale]; ok {
		if s, ok := c[key]; ok {
			return s
		}
	}
	if s, ok := catalogs[Fallback][key]; ok {
		return s
	}
	return key
}

// Tf returns the message for key formatted with args.
func Tf(locale, key string, args ...any) string {
	return fmt.Sprintf(T(locale, key), args...)
}
