package message

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes every tag and attribute and escapes what remains.
var strictPolicy = bluemonday.StrictPolicy()

func Sanitize(content string) string {
	return strictPolicy.Sanitize(content)
}

// NormalizeContent trims and sanitizes raw input. The error text is meant for
// the response details field.
func NormalizeContent(raw string, maxLength int) (string, error) {
	content := strings.TrimSpace(Sanitize(strings.TrimSpace(raw)))
	if content == "" {
		return "", fmt.Errorf("message content must not be empty")
	}
	if maxLength > 0 {
		if n := utf8.RuneCountInString(content); n > maxLength {
			return "", fmt.Errorf("message content must be at most %d characters, got %d", maxLength, n)
		}
	}
	return content, nil
}
