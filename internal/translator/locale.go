package translator

import (
	"strings"

	"golang.org/x/text/language"
)

// HostLocale converts a locale in any common spelling ("pt-br", "pt_BR",
// "PT_br") into the forum's underscore form "pt_BR". Script subtags are kept
// in title case, e.g. "zh-hans" becomes "zh_Hans".
func HostLocale(locale string) string {
	parts := strings.FieldsFunc(strings.TrimSpace(locale), func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(parts) == 0 {
		return ""
	}

	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		switch len(parts[i]) {
		case 2:
			parts[i] = strings.ToUpper(parts[i])
		case 4:
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "_")
}

// BCP47 converts a forum locale into a BCP 47 tag, "pt_BR" -> "pt-BR"
func BCP47(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return strings.ReplaceAll(HostLocale(locale), "_", "-")
	}
	return tag.String()
}

// BaseLanguage returns the language subtag, "pt_BR" -> "pt"
func BaseLanguage(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return strings.SplitN(HostLocale(locale), "_", 2)[0]
	}
	base, _ := tag.Base()
	return base.String()
}

// LocaleMatches reports whether two locales share the same base language
func LocaleMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return BaseLanguage(a) == BaseLanguage(b)
}

// lookupLocale finds locale in a provider mapping trying the exact host form
// first and the base language second
func lookupLocale(mapping map[string]string, locale string) (string, bool) {
	host := HostLocale(locale)
	if code, ok := mapping[host]; ok {
		return code, true
	}
	code, ok := mapping[BaseLanguage(host)]
	return code, ok
}
