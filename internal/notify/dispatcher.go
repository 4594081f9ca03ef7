package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"opsboard/internal/models"
	"opsboard/internal/store"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher delivers notifications over the configured channels from a
// bounded in-memory queue. Delivery is best effort: channel failures are
// logged and the notification stays undelivered for a later pass, they
// never propagate to the operation that created the notification.
type Dispatcher struct {
	store       *store.Store
	email       EmailSender
	push        PushSender
	logger      *slog.Logger
	queue       chan dispatchJob
	sendTimeout time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
}

type dispatchJob struct {
	notification models.Notification
	flushed      chan struct{}
}

// NewDispatcher starts the delivery worker. email and push may be nil
// when the corresponding channel is disabled.
func NewDispatcher(st *store.Store, email EmailSender, push PushSender, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		store:       st,
		email:       email,
		push:        push,
		logger:      logger,
		queue:       make(chan dispatchJob, queueSize),
		sendTimeout: defaultSendTimeout,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue queues a notification for delivery without blocking. When the
// queue is full the notification is dropped from the queue; it remains
// undelivered in the store and is picked up by the next DeliverPending
// pass.
func (d *Dispatcher) Enqueue(n models.Notification) {
	select {
	case d.queue <- dispatchJob{notification: n}:
	default:
		d.logger.Warn("delivery queue full, deferring notification",
			"notification_id", n.ID, "type", string(n.Type))
	}
}

// DeliverPending synchronously delivers every stored notification that
// is due. It returns the number delivered.
func (d *Dispatcher) DeliverPending(ctx context.Context, now time.Time) (int, error) {
	pending, err := d.store.ListDeliverable(ctx, now, 0)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, n := range pending {
		if d.deliver(ctx, n) {
			delivered++
		}
	}
	return delivered, nil
}

// Flush blocks until every notification queued before the call has been
// processed.
func (d *Dispatcher) Flush() {
	flushed := make(chan struct{})
	d.queue <- dispatchJob{flushed: flushed}
	<-flushed
}

// Close stops the worker after draining the queue.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for job := range d.queue {
		if job.flushed != nil {
			close(job.flushed)
			continue
		}
		d.deliver(context.Background(), job.notification)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n models.Notification) bool {
	if n.Delivered || n.Dismissed {
		return false
	}
	now := time.Now()
	if n.ScheduledFor.After(now) {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	delivered := false
	if d.email != nil {
		if err := d.sendEmail(ctx, n); err != nil {
			d.logger.Warn("email delivery failed",
				"notification_id", n.ID, "recipient_id", n.RecipientID, "error", err)
		} else {
			delivered = true
		}
	}
	if d.push != nil {
		count, err := d.push.SendBatch(ctx, []models.Notification{n})
		if err != nil {
			d.logger.Warn("push delivery failed",
				"notification_id", n.ID, "recipient_id", n.RecipientID, "error", err)
		} else if count > 0 {
			delivered = true
		}
	}

	if !delivered {
		return false
	}
	if err := d.store.MarkDelivered(ctx, []string{n.ID}); err != nil {
		d.logger.Error("mark delivered failed", "notification_id", n.ID, "error", err)
	}
	return true
}

func (d *Dispatcher) sendEmail(ctx context.Context, n models.Notification) error {
	recipient, err := d.store.GetUser(ctx, n.RecipientID)
	if err != nil {
		return err
	}
	if recipient == nil || recipient.Email == "" {
		d.logger.Debug("recipient has no email address, skipping email channel",
			"notification_id", n.ID, "recipient_id", n.RecipientID)
		return nil
	}

	var task *models.Task
	var req *models.ExtensionRequest
	if n.TaskID != "" {
		task, err = d.store.GetTask(ctx, n.TaskID)
		if err != nil {
			return err
		}
		if n.Type == models.NotifyExtensionRequested {
			req, err = d.store.GetPendingExtensionForTask(ctx, n.TaskID)
			if err != nil {
				return err
			}
		}
	}

	email, err := Render(n, task, req)
	if err != nil {
		return err
	}
	return d.email.Send(ctx, recipient.Email, email)
}
