package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain splits content into pages on form feed characters. Text
// without form feeds is one page. Invalid UTF-8 sequences are replaced with
// the replacement character.
func extractPlain(content []byte) ([]string, error) {
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "�")
	}
	return strings.Split(text, "\f"), nil
}
