package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-credential-lifecycle/pkg/mailer/templates"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notification dispatcher closed")
)

// Publisher puts a JSON payload on the email queue. Satisfied by
// helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// DispatcherConfig tunes the in-process queue in front of the broker.
type DispatcherConfig struct {
	QueueSize      int
	Workers        int
	AttemptTimeout time.Duration
	MaxRetries     uint64
	BaseBackoff    time.Duration
	Brand          mailtpl.Brand
}

func (c *DispatcherConfig) defaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 5 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 200 * time.Millisecond
	}
}

// Dispatcher hands notifications to a Publisher from a bounded queue so
// that callers never wait on the broker.
type Dispatcher struct {
	pub    Publisher
	cfg    DispatcherConfig
	logger *logrus.Logger

	queue chan EmailJob
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(pub Publisher, cfg DispatcherConfig, logger *logrus.Logger) *Dispatcher {
	cfg.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		pub:    pub,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan EmailJob, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Notify enqueues n without blocking.
func (d *Dispatcher) Notify(_ context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- n.Job(d.cfg.Brand):
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting notifications, publishes what is already queued and
// waits for the workers. Cancelling ctx abandons the remaining jobs.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for job := range d.queue {
		if err := d.publish(job); err != nil {
			d.logger.WithFields(logrus.Fields{
				"template": job.Template,
				"error":    err.Error(),
			}).Error("notification publish failed")
		}
	}
}

func (d *Dispatcher) publish(job EmailJob) error {
	b := retry.WithMaxRetries(d.cfg.MaxRetries, retry.NewExponential(d.cfg.BaseBackoff))
	return retry.Do(d.ctx, b, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
		defer cancel()
		if err := d.pub.PublishJSON(attemptCtx, job); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
