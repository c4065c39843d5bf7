package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/pkg/mailer"
)

// Notifier accepts lifecycle notifications. Delivery is asynchronous; an
// error only means the notification was not accepted.
type Notifier interface {
	Notify(ctx context.Context, n mailer.Notification) error
}

// AccountIndexer mirrors account views into a search backend.
type AccountIndexer interface {
	IndexAccount(ctx context.Context, v entity.AccountView) error
	RemoveAccount(ctx context.Context, id string) error
}

// Option configures the services in this package.
type Option func(*core)

func WithClock(now func() time.Time) Option { return func(c *core) { c.now = now } }

// WithStoreTimeout bounds every storage call.
func WithStoreTimeout(d time.Duration) Option { return func(c *core) { c.storeTimeout = d } }

func WithNotifier(n Notifier) Option { return func(c *core) { c.notifier = n } }

func WithIndexer(i AccountIndexer) Option { return func(c *core) { c.indexer = i } }

func WithLogger(l *logrus.Logger) Option { return func(c *core) { c.logger = l } }

// core holds the collaborators shared by every service.
type core struct {
	now          func() time.Time
	storeTimeout time.Duration
	notifier     Notifier
	indexer      AccountIndexer
	logger       *logrus.Logger
}

func newCore(opts []Option) core {
	c := core{
		now:          time.Now,
		storeTimeout: 5 * time.Second,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *core) clock() time.Time { return c.now().UTC() }

func (c *core) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.storeTimeout)
}

// notify hands n to the notifier. Failures are logged and never returned:
// the state change that triggered the notification is already committed.
func (c *core) notify(ctx context.Context, accountID string, n mailer.Notification) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, n); err != nil {
		c.logger.WithFields(logrus.Fields{
			"account_id": accountID,
			"kind":       n.Kind,
			"error":      err.Error(),
		}).Error("notification dispatch failed")
	}
}

func (c *core) index(ctx context.Context, a *entity.Account) {
	if c.indexer == nil || a == nil {
		return
	}
	if err := c.indexer.IndexAccount(ctx, a.View()); err != nil {
		c.logger.WithFields(logrus.Fields{"account_id": a.ID, "error": err.Error()}).Warn("account index failed")
	}
}

func (c *core) unindex(ctx context.Context, id string) {
	if c.indexer == nil {
		return
	}
	if err := c.indexer.RemoveAccount(ctx, id); err != nil {
		c.logger.WithFields(logrus.Fields{"account_id": id, "error": err.Error()}).Warn("account index removal failed")
	}
}
