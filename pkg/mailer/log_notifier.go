package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier records notifications in the log instead of sending them.
// Used when MAIL_SEND_ENABLED=false.
type LogNotifier struct {
	Logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	// Secrets are logged at debug only so local runs can complete the flows.
	l.Logger.WithFields(logrus.Fields{"kind": n.Kind, "to": n.To}).Info("email sending disabled; notification skipped")
	l.Logger.WithFields(logrus.Fields{"kind": n.Kind, "code": n.Code, "reset_url": n.ResetURL}).Debug("notification payload")
	return nil
}
