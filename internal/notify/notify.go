package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tayoga/internal/metrics"
	"tayoga/internal/queue"
	"tayoga/internal/schedule"
)

const (
	// FunctionName is the edge function that emails the studio and the client.
	FunctionName = "send-registration-notification"
	// MessageType marks registration jobs on the queue.
	MessageType = "registration-notification"
)

// ErrNotificationFailed wraps every failure to hand a notification off.
var ErrNotificationFailed = errors.New("registration notification failed")

var czechWeekdays = [7]string{"neděle", "pondělí", "úterý", "středa", "čtvrtek", "pátek", "sobota"}

// Registration is what the booking flow knows about a new booking.
type Registration struct {
	BookingID string
	Name      string
	Email     string
	Phone     string
	ClassName string
	ClassDate time.Time
	Start     schedule.Clock
	Note      string
}

// Payload is the JSON body sent to the notification function.
type Payload struct {
	BookingID string `json:"bookingId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	ClassName string `json:"className"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Note      string `json:"note,omitempty"`
}

// FormatDate renders a date as "pondělí 6. 1. 2025".
func FormatDate(d time.Time) string {
	return fmt.Sprintf("%s %d. %d. %d", czechWeekdays[d.Weekday()], d.Day(), int(d.Month()), d.Year())
}

// NewPayload builds the display-ready payload for r.
func NewPayload(r Registration) Payload {
	return Payload{
		BookingID: r.BookingID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		ClassName: r.ClassName,
		Date:      FormatDate(r.ClassDate),
		Time:      r.Start.String(),
		Note:      r.Note,
	}
}

// Notifier hands registrations to the queue. It never reports failure to the caller.
type Notifier struct {
	q       queue.Queue
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewNotifier creates a notifier publishing to q.
func NewNotifier(q queue.Queue, log logrus.FieldLogger) *Notifier {
	return &Notifier{q: q, log: log, timeout: 3 * time.Second}
}

// Notify enqueues a notification for r. Failures are logged as warnings and swallowed.
func (n *Notifier) Notify(ctx context.Context, r Registration) {
	log := n.log.WithField("booking_id", r.BookingID)
	defer func() {
		if p := recover(); p != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			log.WithField("panic", p).Warn(ErrNotificationFailed.Error())
		}
	}()

	if err := n.enqueue(ctx, r); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		log.WithError(err).Warn("registration notification not sent")
		return
	}
	metrics.Notifications.WithLabelValues("enqueued").Inc()
	log.Debug("registration notification enqueued")
}

func (n *Notifier) enqueue(ctx context.Context, r Registration) error {
	body, err := json.Marshal(NewPayload(r))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	// the request may already be finishing; the hand-off gets its own deadline
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	msg := queue.Message{ID: uuid.NewString(), Type: MessageType, Body: body, EnqueuedAt: time.Now().UTC()}
	if err := n.q.Publish(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}
