package service

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

var (
	tagsRe       = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

type TextService struct{}

func NewTextService() *TextService {
	return &TextService{}
}

func (ts *TextService) RemoveTags(input string) string {
	return tagsRe.ReplaceAllString(html.UnescapeString(input), "")
}

// CleanName strips markup from a single-line label and collapses whitespace.
func (ts *TextService) CleanName(input string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(ts.RemoveTags(input), " "))
}

// NormalizePath makes remote and local image paths comparable: lower case,
// forward slashes, no leading slash or "data/" prefix.
func (ts *TextService) NormalizePath(input string) string {
	p := strings.ToLower(strings.TrimSpace(input))
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimLeft(p, "/")
	p = strings.TrimPrefix(p, "data/")
	return p
}

// LanguageCode canonicalises a remote language identifier to its base BCP 47
// subtag, so "de-DE" and "de_DE" both give "de".
// Unparseable input is returned lower-cased.
func (ts *TextService) LanguageCode(input string) string {
	raw := strings.TrimSpace(strings.ReplaceAll(input, "_", "-"))
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	base, _ := tag.Base()
	return base.String()
}

// ReduceToLength trims input to at most limit runes, cutting at the last word
// boundary when there is one. A single word longer than limit is cut mid-word.
func (ts *TextService) ReduceToLength(input string, limit int) string {
	input = strings.TrimSpace(input)
	if limit <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}

	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimSpace(string(cut))
}
