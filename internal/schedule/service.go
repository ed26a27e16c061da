package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tayoga/internal/metrics"
)

// ErrDataUnavailable means the class data could not be fetched. Callers should not retry.
var ErrDataUnavailable = errors.New("schedule data unavailable")

// Store is the persistence the service needs; *Repository implements it.
type Store interface {
	ListActiveRecords(ctx context.Context) ([]ClassRecord, error)
	ListClasses(ctx context.Context, includeInactive bool) ([]RecurringClass, error)
	GetClass(ctx context.Context, id string) (RecurringClass, error)
	CreateClass(ctx context.Context, c RecurringClass) (RecurringClass, error)
	UpdateClass(ctx context.Context, c RecurringClass) (RecurringClass, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// Service serves opening hours and manages the class catalogue.
type Service struct {
	store Store
	cache Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewService wires a store and cache. A nil cache disables caching.
func NewService(store Store, cache Cache, ttl time.Duration, log logrus.FieldLogger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{store: store, cache: cache, ttl: ttl, log: log}
}

// OpeningHours returns Monday..Friday with the active slots of each day.
func (s *Service) OpeningHours(ctx context.Context) ([]DaySchedule, error) {
	days, ok, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		metrics.ScheduleCache.WithLabelValues("error").Inc()
		s.log.WithError(err).Warn("opening hours cache read failed")
	case ok:
		metrics.ScheduleCache.WithLabelValues("hit").Inc()
		return days, nil
	default:
		metrics.ScheduleCache.WithLabelValues("miss").Inc()
	}
	return s.Refresh(ctx)
}

// Refresh reads the active classes, aggregates them and repopulates the cache.
func (s *Service) Refresh(ctx context.Context) ([]DaySchedule, error) {
	records, err := s.store.ListActiveRecords(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedInput) {
			return nil, err
		}
		metrics.ScheduleFetchFailures.Inc()
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	days := Aggregate(records)
	if err := s.cache.Set(ctx, days, s.ttl); err != nil {
		s.log.WithError(err).Warn("opening hours cache write failed")
	}
	return days, nil
}

// Classes lists the catalogue. Public callers only see active classes.
func (s *Service) Classes(ctx context.Context, includeInactive bool) ([]RecurringClass, error) {
	classes, err := s.store.ListClasses(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if classes == nil {
		classes = []RecurringClass{}
	}
	return classes, nil
}

// Class fetches one class.
func (s *Service) Class(ctx context.Context, id string) (RecurringClass, error) {
	return s.store.GetClass(ctx, id)
}

// CreateClass validates and stores a new class.
func (s *Service) CreateClass(ctx context.Context, c RecurringClass) (RecurringClass, error) {
	c.ID = ""
	if err := c.Validate(); err != nil {
		return RecurringClass{}, err
	}
	created, err := s.store.CreateClass(ctx, c)
	if err != nil {
		return RecurringClass{}, err
	}
	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"class_id": created.ID, "day": created.DayOfWeek}).Info("class created")
	return created, nil
}

// UpdateClass validates and overwrites an existing class.
func (s *Service) UpdateClass(ctx context.Context, c RecurringClass) (RecurringClass, error) {
	if c.ID == "" {
		return RecurringClass{}, ErrClassNotFound
	}
	if err := c.Validate(); err != nil {
		return RecurringClass{}, err
	}
	updated, err := s.store.UpdateClass(ctx, c)
	if err != nil {
		return RecurringClass{}, err
	}
	s.invalidate(ctx)
	s.log.WithField("class_id", updated.ID).Info("class updated")
	return updated, nil
}

// DeactivateClass hides a class from the timetable without deleting its bookings.
func (s *Service) DeactivateClass(ctx context.Context, id string) error {
	if err := s.store.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.WithField("class_id", id).Info("class deactivated")
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("opening hours cache invalidate failed")
	}
}
