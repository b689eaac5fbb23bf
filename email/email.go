// Package email sends outbound mail for the email tool. The production
// implementation talks SMTP with STARTTLS; tests substitute a recording fake.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPOptions configure the SMTP mailer.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer is a Mailer over an authenticated STARTTLS SMTP connection.
type SMTPMailer struct {
	opts SMTPOptions
}

// NewSMTPMailer creates a mailer for the given SMTP account.
func NewSMTPMailer(optFns ...func(o *SMTPOptions)) *SMTPMailer {
	opts := SMTPOptions{
		Port: 587,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SMTPMailer{opts: opts}
}

// Send delivers one message, dialing a fresh connection per call.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mailMsg := mail.NewMsg()
	if err := mailMsg.From(m.opts.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := mailMsg.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	mailMsg.Subject(msg.Subject)
	mailMsg.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(m.opts.Host,
		mail.WithPort(m.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.opts.Username),
		mail.WithPassword(m.opts.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mailMsg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
