package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tayoga",
		Name:      "bookings_created_total",
		Help:      "Bookings persisted.",
	})

	// Notifications counts registration notifications by outcome: enqueued, sent, failed, skipped.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tayoga",
		Name:      "registration_notifications_total",
		Help:      "Registration notifications by outcome.",
	}, []string{"outcome"})

	// ScheduleCache counts opening-hours cache lookups by result: hit, miss, error.
	ScheduleCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tayoga",
		Name:      "schedule_cache_lookups_total",
		Help:      "Opening-hours cache lookups by result.",
	}, []string{"result"})

	ScheduleFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tayoga",
		Name:      "schedule_fetch_failures_total",
		Help:      "Failed reads of recurring classes.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tayoga",
		Name:      "admin_sessions_active",
		Help:      "Admin sessions currently signed in.",
	})
)
