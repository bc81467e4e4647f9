package search

import (
	"errors"
	"strings"
	"unicode"

	"circle-to-search/src/ocr"
	"circle-to-search/src/screenshot"
)

// Query is the single-use search payload built from a recognition result.
type Query struct {
	Kind  ocr.Kind
	Text  string
	Image *screenshot.Image
}

// NewQuery derives a query from res. Text keeps its words but line breaks
// become spaces and it is cut at a word boundary to maxChars runes.
func NewQuery(res ocr.Result, maxChars int) (Query, error) {
	switch res.Kind {
	case ocr.KindText:
		text := strings.Join(strings.Fields(res.Text), " ")
		if text == "" {
			return Query{}, errors.New("empty text query")
		}
		return Query{Kind: ocr.KindText, Text: truncateWords(text, maxChars)}, nil
	case ocr.KindImage:
		if res.Image == nil {
			return Query{}, errors.New("image query without image")
		}
		return Query{Kind: ocr.KindImage, Image: res.Image}, nil
	default:
		return Query{}, errors.New("unknown recognition result")
	}
}

func truncateWords(text string, maxChars int) string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return text
	}
	cut := maxChars
	for i := maxChars; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut]))
}
