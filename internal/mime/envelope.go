package mime

import (
	"bytes"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
)

// Envelope describes an outgoing message
type Envelope struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// BuildRFC822 renders env as an RFC 822 message. To may hold a comma-separated
// address list. A message with only HTML gets a plain-text alternative.
func BuildRFC822(env Envelope) ([]byte, error) {
	from, err := mail.ParseAddress(env.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", env.From, err)
	}

	to, err := mail.ParseAddressList(env.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipients %q: %w", env.To, err)
	}

	subject := strings.TrimSpace(env.Subject)
	if subject == "" {
		subject = DefaultSubject
	}

	text := env.Text
	if text == "" && env.HTML != "" {
		text = strings.TrimSpace(strings.Join(strings.Fields(StripHTMLTags(env.HTML)), " "))
	}

	builder := enmime.Builder().
		From(from.Name, from.Address).
		Subject(subject).
		Text([]byte(text))
	for _, addr := range to {
		builder = builder.To(addr.Name, addr.Address)
	}
	if env.HTML != "" {
		builder = builder.HTML([]byte(env.HTML))
	}

	part, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return buf.Bytes(), nil
}
