package email

import (
	"context"
	"fmt"
	"regexp"
)

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks the message is deliverable.
func (m Message) Validate() error {
	if !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: recipient %q", ErrInvalidMessage, m.To)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	}
	if m.BodyHTML == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return nil
}

// Config holds the Postmark credentials and sender identity. Tokens are
// optional so development environments can run with the dev sender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@miplata.cl"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"soporte@miplata.cl"`
}
