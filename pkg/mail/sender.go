package mail

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/mail.v2"
)

type Attachment struct {
	Name    string
	Content io.Reader
}

type Message struct {
	To          []string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

type Sender interface {
	// Send delivers msg. It returns ctx.Err() if ctx ends before the SMTP
	// exchange completes; the exchange itself is bounded by the dialer timeout.
	Send(ctx context.Context, msg Message) error
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type sender struct {
	email  string
	dialer Dialer
}

func (s *sender) build(msg Message) *mail.Message {
	m := mail.NewMessage()

	m.SetHeader("From", s.email)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)

	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		if msg.TextBody != "" {
			m.AddAlternative("text/html", msg.HTMLBody)
		} else {
			m.SetBody("text/html", msg.HTMLBody)
		}
	}

	for _, attachment := range msg.Attachments {
		if attachment.Content != nil && attachment.Name != "" {
			content := attachment.Content
			m.Attach(attachment.Name, mail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, content)
				return err
			}))
		}
	}
	return m
}

func (s *sender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("Sender.Send: no recipients")
	}
	m := s.build(msg)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("Sender.Send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Sender.Send: %w", ctx.Err())
	}
}

func NewMailSender(email, password, host string, port int, timeout time.Duration) Sender {
	d := mail.NewDialer(host, port, email, password)
	d.Timeout = timeout
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &sender{
		email:  email,
		dialer: d,
	}
}
