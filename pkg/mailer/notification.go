package mailer

import (
	"context"
	"errors"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/go-credential-lifecycle/pkg/mailer/templates"
)

// Kind selects the email sent for a lifecycle event.
type Kind string

const (
	KindVerifyEmail    Kind = mailtpl.VerifyEmail
	KindWelcome        Kind = mailtpl.Welcome
	KindForgotPassword Kind = mailtpl.ForgotPassword
	KindResetSuccess   Kind = mailtpl.ResetSuccess
)

var ErrInvalidNotification = errors.New("invalid notification")

// Notification is a request to tell an account holder about a lifecycle
// event. Code is set for verify_email, ResetURL for forgot_password.
type Notification struct {
	Kind      Kind
	To        string
	Name      string
	Code      string
	ResetURL  string
	ExpiresAt time.Time
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.To) == "" || !mailtpl.Known(string(n.Kind)) {
		return ErrInvalidNotification
	}
	return nil
}

// Job turns n into the queue payload rendered by the email worker.
func (n Notification) Job(brand mailtpl.Brand) EmailJob {
	d := mailtpl.NewEmailData(brand, string(n.Kind), n.Name, n.To,
		mailtpl.WithCode(n.Code),
		mailtpl.WithResetURL(n.ResetURL),
		mailtpl.WithExpiresAt(n.ExpiresAt),
	)
	return EmailJob{To: n.To, Template: string(n.Kind), Data: mailtpl.ToMap(d)}
}

// Notifier accepts notifications for delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
