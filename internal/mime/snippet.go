package mime

import (
	"regexp"
	"strings"
)

// SnippetLength is the maximum length of a generated preview
const SnippetLength = 200

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Snippet builds a preview for locally composed messages, which the provider
// only summarizes on the next sync
func Snippet(text, html string) string {
	var s string
	if text != "" {
		s = text
	} else if html != "" {
		s = StripHTMLTags(html)
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > SnippetLength {
		s = string(runes[:SnippetLength-3]) + "..."
	}
	return s
}

// StripHTMLTags removes markup, script and style blocks, and common entities
func StripHTMLTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, " ")
	return entityReplacer.Replace(html)
}
