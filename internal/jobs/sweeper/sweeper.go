package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Expirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration, batch int) (int, error)
}

// Sweeper periodically fails pending purchases nobody completed within ttl.
type Sweeper struct {
	cron     *cron.Cron
	expirer  Expirer
	ttl      time.Duration
	schedule string
	timeout  time.Duration
	log      logrus.FieldLogger
}

func New(expirer Expirer, ttl time.Duration, schedule string, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(cron.WithSeconds()),
		expirer:  expirer,
		ttl:      ttl,
		schedule: schedule,
		timeout:  time.Minute,
		log:      log.WithField("job", "expire_stale_purchases"),
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("sweeper started")
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("sweeper stopped")
}

// RunOnce expires one batch and returns how many purchases were failed.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireStale(ctx, s.ttl, 200)
	if err != nil {
		s.log.WithError(err).Error("expire stale purchases failed")
	}
	if n > 0 {
		s.log.WithField("expired", n).Info("stale purchases marked failed")
	}
	return n
}
