// Package jobs runs periodic background work on a cron scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"game_theory_arena/internal/ws"
)

type StatsSource interface {
	Stats(ctx context.Context) (ws.HubStats, error)
}

// Scheduler logs a hub snapshot every interval.
type Scheduler struct {
	cron  *cron.Cron
	hub   StatsSource
	log   *zap.Logger
	every time.Duration
}

func NewScheduler(hub StatsSource, every time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if every <= 0 {
		every = time.Minute
	}
	return &Scheduler{
		cron:  cron.New(),
		hub:   hub,
		log:   log.Named("jobs"),
		every: every,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.every), s.ReportStats); err != nil {
		return fmt.Errorf("schedule stats report: %w", err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.Duration("stats_every", s.every))
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) ReportStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := s.hub.Stats(ctx)
	if err != nil {
		s.log.Warn("hub stats unavailable", zap.Error(err))
		return
	}
	s.log.Info("hub stats",
		zap.Int("rooms", st.Rooms),
		zap.Int("waiting", st.Waiting),
		zap.Int("bound_connections", st.BoundConnections),
	)
}
