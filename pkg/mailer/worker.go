package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-credential-lifecycle/pkg/mailer/templates"
)

// ErrPoison marks a message that can never be delivered and must not be requeued.
var ErrPoison = errors.New("undeliverable email job")

// Sender delivers a rendered email. Satisfied by *Mailgun.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Worker renders queued EmailJobs and sends them.
type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
	MaxRetries  uint64
	BaseBackoff time.Duration
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{
		Sender:      sender,
		Logger:      logger,
		SendTimeout: 15 * time.Second,
		MaxRetries:  3,
		BaseBackoff: time.Second,
	}
}

// Handle processes one message body.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPoison, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrPoison)
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}

	email, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrPoison, err)
	}

	b := retry.WithMaxRetries(w.MaxRetries, retry.NewExponential(w.BaseBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		c, cancel := context.WithTimeout(ctx, w.SendTimeout)
		defer cancel()
		if err := w.Sender.Send(c, job.To, email.Subject, email.Text, email.HTML); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Consume acks delivered messages and nacks failures without requeue until
// msgs is closed or ctx ends.
func (w *Worker) Consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := w.Handle(ctx, msg.Body); err != nil {
				w.Logger.WithFields(logrus.Fields{
					"poison": errors.Is(err, ErrPoison),
					"error":  err.Error(),
				}).Error("email job failed")
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}
