package i18n

import "strings"

// Lang is a language notices can be rendered in.
type Lang string

const (
	RU Lang = "ru"
	EN Lang = "en"
)

// ParseLang maps a stored language code to a supported Lang, falling back
// to fallback for anything unknown.
func ParseLang(s string, fallback Lang) Lang {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "ru"):
		return RU
	case strings.HasPrefix(s, "en"):
		return EN
	}
	return fallback
}
