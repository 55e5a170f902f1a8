package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/botflowhq/botflow/internal/auth/store"
)

// HousekeepingService periodically clears expired refresh and reset token
// state from the accounts table so stale fingerprints cannot linger at rest.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Non-blocking; call Stop() to gracefully shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until the
// worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup clears each class of expired token state independently so a
// failure in one does not stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	if n, err := s.Store.Accounts().ClearExpiredRefreshTokens(ctx); err != nil {
		s.Logger.Error("failed to clear expired refresh tokens", "error", err)
	} else if n > 0 {
		s.Logger.Info("cleared expired refresh tokens", "accounts", n)
	}

	if n, err := s.Store.Accounts().ClearExpiredResetTokens(ctx); err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
	} else if n > 0 {
		s.Logger.Info("cleared expired reset tokens", "accounts", n)
	}
}
