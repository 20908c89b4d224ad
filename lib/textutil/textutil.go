package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes all whitespace from it.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// StripThousands removes the thousands separators of a formatted number,
// "1,234,567" becomes "1234567".
func StripThousands(number string) string {
	return strings.ReplaceAll(number, ",", "")
}
