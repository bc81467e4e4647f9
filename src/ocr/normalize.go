package ocr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeText cleans OCR output deterministically:
//   - line endings become "\n" and whitespace runs inside a line become one space
//   - a line ending in "-" followed by a line starting lowercase is joined without the hyphen
//   - other single line breaks become a space
//   - blank lines separate paragraphs, which are joined with a single "\n"
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			flush()
			continue
		}
		if current.Len() == 0 {
			current.WriteString(line)
			continue
		}
		prev := current.String()
		if strings.HasSuffix(prev, "-") && startsLower(line) {
			current.Reset()
			current.WriteString(strings.TrimSuffix(prev, "-"))
			current.WriteString(line)
			continue
		}
		current.WriteByte(' ')
		current.WriteString(line)
	}
	flush()

	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}
