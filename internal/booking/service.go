package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tayoga/internal/metrics"
	"tayoga/internal/notify"
	"tayoga/internal/schedule"
)

var (
	ErrInvalidBooking   = errors.New("invalid booking")
	ErrClassUnavailable = errors.New("class not available")
	ErrDateMismatch     = errors.New("class does not run on that date")
	ErrPastDate         = errors.New("class date is in the past")
	ErrClassFull        = errors.New("class is full")
)

// Booking is one person's registration for one class occurrence.
type Booking struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"classId"`
	ClassName string    `json:"className,omitempty"`
	ClassDate time.Time `json:"classDate"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Request is the public registration form.
type Request struct {
	ClassID   string `json:"classId"`
	ClassDate string `json:"classDate"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Note      string `json:"note"`
}

// Classes resolves a class by id; *schedule.Service implements it.
type Classes interface {
	Class(ctx context.Context, id string) (schedule.RecurringClass, error)
}

// Store persists bookings; *Repository implements it.
type Store interface {
	Create(ctx context.Context, b Booking, capacity int) (Booking, error)
	List(ctx context.Context, date *time.Time) ([]Booking, error)
}

// Notifier is told about every stored booking.
type Notifier interface {
	Notify(ctx context.Context, r notify.Registration)
}

// Service runs the registration flow.
type Service struct {
	classes  Classes
	store    Store
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService wires the booking flow.
func NewService(classes Classes, store Store, notifier Notifier, log logrus.FieldLogger) *Service {
	return &Service{classes: classes, store: store, notifier: notifier, log: log, now: time.Now}
}

// Register validates req, stores the booking and then notifies.
// The booking stands even when the notification cannot be sent.
func (s *Service) Register(ctx context.Context, req Request) (Booking, error) {
	req = normalize(req)
	date, err := validate(req)
	if err != nil {
		return Booking{}, err
	}

	class, err := s.classes.Class(ctx, req.ClassID)
	if errors.Is(err, schedule.ErrClassNotFound) {
		return Booking{}, ErrClassUnavailable
	}
	if err != nil {
		return Booking{}, err
	}
	if !class.IsActive {
		return Booking{}, ErrClassUnavailable
	}
	if int(date.Weekday()) != class.DayOfWeek {
		return Booking{}, fmt.Errorf("%w: %s is a %s", ErrDateMismatch, req.ClassDate, schedule.DayNames[date.Weekday()])
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return Booking{}, ErrPastDate
	}

	b, err := s.store.Create(ctx, Booking{
		ClassID:   class.ID,
		ClassName: class.Name,
		ClassDate: date,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Note:      req.Note,
	}, class.Capacity)
	if err != nil {
		return Booking{}, err
	}
	b.ClassName = class.Name
	metrics.BookingsCreated.Inc()
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "class_id": b.ClassID, "date": req.ClassDate}).Info("booking created")

	s.notifier.Notify(ctx, notify.Registration{
		BookingID: b.ID,
		Name:      b.Name,
		Email:     b.Email,
		Phone:     b.Phone,
		ClassName: class.Name,
		ClassDate: date,
		Start:     class.Start,
		Note:      b.Note,
	})
	return b, nil
}

// List returns bookings, optionally only those for one date ("2006-01-02").
func (s *Service) List(ctx context.Context, date string) ([]Booking, error) {
	var filter *time.Time
	if date != "" {
		d, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidBooking)
		}
		filter = &d
	}
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Booking{}
	}
	return out, nil
}

func normalize(r Request) Request {
	r.ClassID = strings.TrimSpace(r.ClassID)
	r.ClassDate = strings.TrimSpace(r.ClassDate)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Note = strings.TrimSpace(r.Note)
	return r
}

func validate(r Request) (time.Time, error) {
	if r.ClassID == "" {
		return time.Time{}, fmt.Errorf("%w: classId required", ErrInvalidBooking)
	}
	if r.Name == "" {
		return time.Time{}, fmt.Errorf("%w: name required", ErrInvalidBooking)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || !strings.Contains(r.Email, "@") {
		return time.Time{}, fmt.Errorf("%w: valid email required", ErrInvalidBooking)
	}
	if len(r.Note) > 1000 {
		return time.Time{}, fmt.Errorf("%w: note too long", ErrInvalidBooking)
	}
	date, err := time.Parse(time.DateOnly, r.ClassDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: classDate must be YYYY-MM-DD", ErrInvalidBooking)
	}
	return date, nil
}
