package mime

import (
	"encoding/base64"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// ==================== ExtractBody Tests ====================

func TestExtractBody_InlineBodyIsText(t *testing.T) {
	payload := &Part{MimeType: "text/html", Data: encode("<p>hi</p>")}

	body := ExtractBody(payload, "snippet")

	assert.Equal(t, "<p>hi</p>", body.Text)
	assert.Empty(t, body.HTML)
}

func TestExtractBody_AcceptsPaddedData(t *testing.T) {
	payload := &Part{Data: base64.URLEncoding.EncodeToString([]byte("ab"))}

	assert.Equal(t, "ab", ExtractBody(payload, "").Text)
}

func TestExtractBody_MultipartAlternative(t *testing.T) {
	payload := &Part{
		MimeType: "multipart/alternative",
		Parts: []*Part{
			{MimeType: "text/plain; charset=UTF-8", Data: encode("Hello")},
			{MimeType: "text/html", Data: encode("<b>Hello</b>")},
		},
	}

	body := ExtractBody(payload, "snippet")

	assert.Equal(t, "Hello", body.Text)
	assert.Equal(t, "<b>Hello</b>", body.HTML)
}

func TestExtractBody_OnlyScansDirectChildren(t *testing.T) {
	payload := &Part{
		MimeType: "multipart/mixed",
		Parts: []*Part{
			{
				MimeType: "multipart/alternative",
				Parts: []*Part{
					{MimeType: "text/plain", Data: encode("nested")},
				},
			},
		},
	}

	body := ExtractBody(payload, "the snippet")

	assert.Equal(t, "the snippet", body.Text)
	assert.Empty(t, body.HTML)
}

func TestExtractBody_HTMLOnlyChild(t *testing.T) {
	payload := &Part{
		Parts: []*Part{{MimeType: "text/html", Data: encode("<i>x</i>")}},
	}

	body := ExtractBody(payload, "snippet")

	assert.Empty(t, body.Text)
	assert.Equal(t, "<i>x</i>", body.HTML)
}

func TestExtractBody_UndecodableFallsBackToSnippet(t *testing.T) {
	payload := &Part{
		Parts: []*Part{{MimeType: "text/plain", Data: "***not base64***"}},
	}

	assert.Equal(t, Body{Text: "snippet"}, ExtractBody(payload, "snippet"))
	assert.Equal(t, Body{Text: "snippet"}, ExtractBody(nil, "snippet"))
}

func TestExtractBody_TranscodesDeclaredCharset(t *testing.T) {
	payload := &Part{
		MimeType: "multipart/alternative",
		Parts: []*Part{
			{
				MimeType: "text/plain",
				Headers:  []Header{{Name: "Content-Type", Value: `text/plain; charset="ISO-8859-1"`}},
				Data:     encode("Caf\xe9 ouvert"),
			},
			{
				MimeType: "text/html",
				Headers:  []Header{{Name: "Content-Type", Value: "text/html; charset=windows-1252"}},
				Data:     encode("<p>\x93Caf\xe9\x94</p>"),
			},
		},
	}

	body := ExtractBody(payload, "")

	assert.Equal(t, "Café ouvert", body.Text)
	assert.Equal(t, "<p>\u201cCafé\u201d</p>", body.HTML)
}

func TestExtractBody_InlineBodyUsesCharset(t *testing.T) {
	payload := &Part{
		MimeType: "text/plain",
		Headers:  []Header{{Name: "content-type", Value: "text/plain; charset=iso-8859-1"}},
		Data:     encode("R\xe9sum\xe9"),
	}

	body := ExtractBody(payload, "")

	assert.Equal(t, "Résumé", body.Text)
}

func TestExtractBody_CharsetFromMimeType(t *testing.T) {
	payload := &Part{MimeType: "text/plain; charset=latin1", Data: encode("na\xefve")}

	assert.Equal(t, "naïve", ExtractBody(payload, "").Text)
}

func TestExtractBody_UndeclaredInvalidBytesAreRepaired(t *testing.T) {
	payload := &Part{MimeType: "text/plain", Data: encode("ok\xff\xfeend")}

	text := ExtractBody(payload, "").Text

	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, "ok\uFFFDend", text)
}

func TestExtractBody_UnknownCharsetIsRepaired(t *testing.T) {
	payload := &Part{
		Headers: []Header{{Name: "Content-Type", Value: "text/plain; charset=x-bogus"}},
		Data:    encode("plain \xe9"),
	}

	text := ExtractBody(payload, "").Text

	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, "plain \uFFFD", text)
}

// ==================== ExtractHeaders Tests ====================

func TestExtractHeaders_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	h := ExtractHeaders(nil, now)

	assert.Equal(t, DefaultSubject, h.Subject)
	assert.Equal(t, DefaultFrom, h.From)
	assert.Equal(t, DefaultTo, h.To)
	assert.Equal(t, now, h.Date)
}

func TestExtractHeaders_ReadsValues(t *testing.T) {
	now := time.Now()
	headers := []Header{
		{Name: "Subject", Value: "Exam schedule"},
		{Name: "From", Value: "Registrar <registrar@campus.edu>"},
		{Name: "To", Value: "student@campus.edu"},
		{Name: "Date", Value: "Mon, 02 Feb 2026 09:30:00 +0000"},
		{Name: "Subject", Value: "ignored duplicate"},
	}

	h := ExtractHeaders(headers, now)

	assert.Equal(t, "Exam schedule", h.Subject)
	assert.Equal(t, "Registrar <registrar@campus.edu>", h.From)
	assert.Equal(t, "student@campus.edu", h.To)
	assert.True(t, h.Date.Equal(time.Date(2026, 2, 2, 9, 30, 0, 0, time.UTC)))
}

func TestExtractHeaders_CaseSensitiveAndBadDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	headers := []Header{
		{Name: "subject", Value: "lowercase"},
		{Name: "Date", Value: "yesterday"},
	}

	h := ExtractHeaders(headers, now)

	assert.Equal(t, DefaultSubject, h.Subject)
	assert.Equal(t, now, h.Date)
}

// ==================== Snippet Tests ====================

func TestSnippet_PrefersTextAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Snippet("a \n b\t c", "<p>html</p>"))
}

func TestSnippet_FromHTML(t *testing.T) {
	got := Snippet("", "<style>p{}</style><p>Tom &amp; Jerry</p>")
	assert.Equal(t, "Tom & Jerry", got)
}

func TestSnippet_Truncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	got := Snippet(string(long), "")

	assert.Len(t, got, SnippetLength)
	assert.Equal(t, "...", got[len(got)-3:])
}
