package feed

import (
	"errors"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// ErrNoContent reports that no readable text could be extracted from a page.
var ErrNoContent = errors.New("no readable content")

var (
	stripPolicy = bluemonday.StrictPolicy()
	blockEnd    = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|section|article|blockquote|pre)>|<br\s*/?>`)
)

// ExtractText pulls the main article text out of a page.
// Non-content elements are dropped first, readability picks the article body,
// and plain tag stripping is the fallback when readability cannot.
func ExtractText(rawHTML string, pageURL *url.URL) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", ErrNoContent
	}
	if pageURL == nil {
		pageURL = &url.URL{}
	}

	cleaned := rawHTML
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
		doc.Find("script, style, noscript, iframe, embed, object, nav, header, footer, aside, form").Remove()
		if out, err := doc.Html(); err == nil && out != "" {
			cleaned = out
		}
	}

	if article, err := readability.FromReader(strings.NewReader(cleaned), pageURL); err == nil {
		if text := normalizeParagraphs(article.TextContent); text != "" {
			return text, nil
		}
	}

	text := StripTags(cleaned)
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

// StripTags removes every tag and keeps one line per block element.
func StripTags(raw string) string {
	withBreaks := blockEnd.ReplaceAllString(raw, "$0\n")
	return normalizeParagraphs(html.UnescapeString(stripPolicy.Sanitize(withBreaks)))
}

// normalizeParagraphs collapses whitespace inside lines and drops blank lines.
func normalizeParagraphs(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
