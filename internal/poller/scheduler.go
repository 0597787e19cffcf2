package poller

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultSchedule = "@hourly"

// Scheduler runs the poller on a cron schedule. An overlapping run is
// dropped by the poll gate rather than queued.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(p *Poller, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = defaultSchedule
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		result, err := p.Poll(ctx)
		if err != nil {
			if errors.Is(err, ErrAlreadyPolling) {
				zap.L().Info("Scheduled poll skipped, previous poll still running")
				return
			}
			zap.L().Error("Scheduled poll failed", zap.Error(err))
			return
		}
		zap.L().Debug("Scheduled poll finished",
			zap.Int("fetched", result.Fetched),
			zap.Int("processed", result.Processed))
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running poll to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
