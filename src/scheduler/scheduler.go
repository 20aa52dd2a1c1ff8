package scheduler

import (
	"fmt"

	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/store"

	"github.com/robfig/cron/v3"
)

// -----------------------------------------------------------------------------

// RefreshScheduler arms periodic snapshot reloads on a cron schedule. The
// normal reload trigger rides on tick timing; when the feed is down no tick
// arrives and the snapshot would go stale forever, so this fallback keeps
// the display converging.
type RefreshScheduler struct {
	Cron   *cron.Cron
	Store  *store.Store
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRefreshScheduler(st *store.Store, log *logger.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		Cron:   cron.New(),
		Store:  st,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Register adds the fallback refresh entry.
func (s *RefreshScheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() {
		s.Logger.Debug("Fallback snapshot refresh armed")
		s.Store.RequestReload()
	}); err != nil {
		return fmt.Errorf("register fallback refresh: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *RefreshScheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("Refresh scheduler started")
}

// -----------------------------------------------------------------------------

func (s *RefreshScheduler) Stop() {
	s.Cron.Stop()
	s.Logger.Info("Refresh scheduler stopped")
}
