package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Warmer refreshes the opening-hours cache on a cron schedule.
type Warmer struct {
	cron *cron.Cron
	svc  *Service
	spec string
	log  logrus.FieldLogger
}

// NewWarmer creates a warmer for spec, e.g. "*/5 * * * *".
func NewWarmer(svc *Service, spec string, log logrus.FieldLogger) *Warmer {
	return &Warmer{
		cron: cron.New(cron.WithLocation(time.Local)),
		svc:  svc,
		spec: spec,
		log:  log,
	}
}

// Start registers the refresh job and starts the scheduler.
func (w *Warmer) Start() error {
	if _, err := w.cron.AddFunc(w.spec, w.run); err != nil {
		return err
	}
	w.cron.Start()
	w.log.WithField("spec", w.spec).Info("opening hours warmer started")
	return nil
}

// Stop stops the scheduler; the returned context is done once a running job finishes.
func (w *Warmer) Stop() context.Context {
	return w.cron.Stop()
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := w.svc.Refresh(ctx); err != nil {
		w.log.WithError(err).Warn("opening hours refresh failed")
	}
}
