package mime

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhillyerd/enmime/mediatype"
	"golang.org/x/text/encoding/htmlindex"
)

// Header defaults applied when the provider omits a header
const (
	DefaultSubject = "(No Subject)"
	DefaultFrom    = "Unknown"
	DefaultTo      = "Me"
)

// Header is one name/value pair from a message payload
type Header struct {
	Name  string
	Value string
}

// Part is a node of a provider message payload tree.
// Data holds the base64url-encoded body as returned by the provider.
type Part struct {
	MimeType string
	Headers  []Header
	Data     string
	Parts    []*Part
}

// Body is the decoded text and HTML content of a message
type Body struct {
	Text string
	HTML string
}

// Headers are the display headers of a message
type Headers struct {
	Subject string
	From    string
	To      string
	Date    time.Time
}

// ExtractBody decodes the readable bodies of payload.
// An inline body is taken as text. Otherwise only the direct children are scanned
// for text/plain and text/html. When nothing decodes, the snippet becomes the text.
func ExtractBody(payload *Part, snippet string) Body {
	if payload == nil {
		return Body{Text: snippet}
	}

	if payload.Data != "" {
		if text, ok := decodeData(payload.Data, partCharset(payload)); ok {
			return Body{Text: text}
		}
	}

	var body Body
	for _, child := range payload.Parts {
		if child == nil || child.Data == "" {
			continue
		}
		charset := partCharset(child)
		switch mediaType(child.MimeType) {
		case "text/plain":
			if body.Text != "" {
				continue
			}
			if text, ok := decodeData(child.Data, charset); ok {
				body.Text = text
			}
		case "text/html":
			if body.HTML != "" {
				continue
			}
			if html, ok := decodeData(child.Data, charset); ok {
				body.HTML = html
			}
		}
	}

	if body.Text == "" && body.HTML == "" {
		return Body{Text: snippet}
	}
	return body
}

// ExtractHeaders reads Subject, From, To and Date. Lookup is case-sensitive and the
// first occurrence wins. Missing or unparsable values fall back to defaults and now.
func ExtractHeaders(headers []Header, now time.Time) Headers {
	out := Headers{
		Subject: DefaultSubject,
		From:    DefaultFrom,
		To:      DefaultTo,
		Date:    now,
	}
	seen := make(map[string]bool, 4)

	for _, h := range headers {
		if seen[h.Name] {
			continue
		}
		switch h.Name {
		case "Subject":
			if h.Value != "" {
				out.Subject = h.Value
			}
		case "From":
			if h.Value != "" {
				out.From = h.Value
			}
		case "To":
			if h.Value != "" {
				out.To = h.Value
			}
		case "Date":
			if t, err := mail.ParseDate(strings.TrimSpace(h.Value)); err == nil {
				out.Date = t
			}
		default:
			continue
		}
		seen[h.Name] = true
	}
	return out
}

// decodeData decodes base64url with or without padding and converts the
// result from charset to UTF-8
func decodeData(data, charset string) (string, bool) {
	data = strings.TrimRight(strings.TrimSpace(data), "=")
	if data == "" {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return toUTF8(b, charset), true
}

// toUTF8 transcodes b from charset. Unknown charsets and undeclared non-UTF-8
// bytes are repaired with the replacement character.
func toUTF8(b []byte, charset string) string {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset != "" && charset != "utf-8" && charset != "utf8" && charset != "us-ascii" {
		if enc, err := htmlindex.Get(charset); err == nil {
			if out, err := enc.NewDecoder().Bytes(b); err == nil {
				b = out
			}
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// partCharset returns the charset parameter of the part's Content-Type header,
// falling back to the parameters carried on its media type
func partCharset(p *Part) string {
	ctype := p.MimeType
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, "Content-Type") {
			ctype = h.Value
			break
		}
	}
	if ctype == "" {
		return ""
	}
	_, params, _, err := mediatype.Parse(ctype)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
