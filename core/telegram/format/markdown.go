package format

import (
	"strings"
)

// mdV1Specials are the characters Telegram's legacy Markdown treats as markup.
const mdV1Specials = "_*`["

// EscapeMarkdown escapes special characters for Telegram's legacy Markdown
// parse mode so user-controlled values (usernames, product names) cannot
// break message formatting.
func EscapeMarkdown(text string) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(mdV1Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
