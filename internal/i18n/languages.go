package i18n

import "strings"

// languageNames lists the languages replies can be rendered in.
var languageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"uk": "Ukrainian",
}

// IsSupported accepts bare codes and regional tags such as "ru-RU" or "uk_UA".
func IsSupported(code string) bool {
	_, ok := languageNames[baseLanguage(code)]
	return ok
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}
