// Package validation содержит функции разбора и валидации свободного текста выписок.
package validation

import (
	"regexp"
	"strings"
)

// phonePattern находит первый 8-значный мобильный номер, возможно с префиксом +976 или 0
// и пробелами между цифрами. Первая цифра самого номера не может быть нулём.
var phonePattern = regexp.MustCompile(`(?:\+976[\s\p{Zs}]*|0[\s\p{Zs}]*)?([1-9](?:[\s\p{Zs}]*[0-9]){7})`)

// ExtractPhone извлекает номер телефона из назначения платежа.
// При нескольких номерах в тексте возвращается самый левый.
func ExtractPhone(memo string) (string, bool) {
	if memo == "" {
		return "", false
	}

	m := phonePattern.FindStringSubmatch(memo)
	if m == nil {
		return "", false
	}

	return keepDigits(m[1]), true
}

func keepDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
