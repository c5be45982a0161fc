package app

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the maximum number of characters in a reservation name
const MaxNameLength = 100

var markupStripper = strings.NewReplacer(
	"<", "",
	">", "",
	"&", "",
	`"`, "",
	"'", "",
	"`", "",
)

// SanitizeName strips markup-special characters and surrounding whitespace
func SanitizeName(name string) string {
	return strings.TrimSpace(markupStripper.Replace(name))
}

// validName reports whether a sanitized name satisfies the length rules
func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= MaxNameLength
}
