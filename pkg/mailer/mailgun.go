package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailTag = "credential-lifecycle"

// Mailgun sends rendered notifications through the Mailgun API.
type Mailgun struct {
	Sender  string
	Timeout time.Duration

	client *mg.MailgunImpl
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Sender: sender, Timeout: 10 * time.Second, client: mg.NewMailgun(domain, apiKey)}
}

// Send delivers one message. Links are not click-tracked so that reset
// tokens are never rewritten through the provider's redirect host.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	msg.SetTrackingClicks(false)
	if err := msg.AddTag(mailTag); err != nil {
		return err
	}

	c, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
