package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tayoga/internal/metrics"
	"tayoga/internal/queue"
)

// Invoker calls a named remote function; *functions.Client implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload any) error
}

// Dispatcher drains registration jobs and calls the notification function.
type Dispatcher struct {
	fn      Invoker
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(fn Invoker, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{fn: fn, log: log, timeout: 15 * time.Second}
}

// Run consumes q until ctx is done. Failed deliveries are logged and dropped.
func (d *Dispatcher) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}
	d.log.Info("notification dispatcher started")
	for msg := range messages {
		if err := d.Handle(ctx, msg); err != nil {
			d.log.WithError(err).WithField("message_id", msg.ID).Warn("registration notification failed")
		}
	}
	d.log.Info("notification dispatcher stopped")
	return nil
}

// Handle delivers one message. Unknown message types are ignored.
func (d *Dispatcher) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != MessageType {
		d.log.WithField("type", msg.Type).Debug("skipping unknown message type")
		return nil
	}
	var p Payload
	if err := json.Unmarshal(msg.Body, &p); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: decode: %v", ErrNotificationFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.fn.Invoke(ctx, FunctionName, p); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
	d.log.WithField("booking_id", p.BookingID).Info("registration notification sent")
	return nil
}
