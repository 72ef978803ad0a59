// Package text holds helpers for matching user text against keyword lists.
package text

import "strings"

// latinLookalikes maps lowercase Cyrillic letters to the Latin letters they render as.
var latinLookalikes = map[rune]rune{
	'а': 'a',
	'е': 'e',
	'ё': 'e',
	'і': 'i',
	'ј': 'j',
	'к': 'k',
	'м': 'm',
	'о': 'o',
	'р': 'p',
	'с': 'c',
	'т': 't',
	'у': 'y',
	'х': 'x',
	'ѕ': 's',
	'һ': 'h',
	'ԁ': 'd',
	'ԛ': 'q',
	'ԝ': 'w',
}

// HasCyrillics checks if the given string contains any Cyrillic characters
func HasCyrillics(content string) bool {
	for _, r := range content {
		if isCyrillic(r) {
			return true
		}
	}
	return false
}

// IsMixedScript reports whether content has both Latin and Cyrillic letters.
func IsMixedScript(content string) bool {
	var latin, cyrillic bool
	for _, r := range content {
		switch {
		case isCyrillic(r):
			cyrillic = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			latin = true
		}
		if latin && cyrillic {
			return true
		}
	}
	return false
}

// FoldLookalikes lowercases content and replaces Cyrillic letters that look
// like Latin ones, so "ѕсаm" matches "scam".
func FoldLookalikes(content string) string {
	return strings.Map(func(r rune) rune {
		if latin, ok := latinLookalikes[r]; ok {
			return latin
		}
		return r
	}, strings.ToLower(content))
}

func isCyrillic(r rune) bool {
	return r >= 0x0400 && r <= 0x052F
}
