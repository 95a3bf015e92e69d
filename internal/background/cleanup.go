package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mhutchens/waypoint/internal/repositories"
)

// Expired action tokens are kept briefly after expiry so a late click gets
// "expired" rather than "invalid".
const expiredTokenRetention = 24 * time.Hour

// CleanupManager periodically removes expired action tokens and refresh
// sessions from the database.
type CleanupManager struct {
	store    repositories.Store
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(store repositories.Store, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tokens, err := cm.store.Tokens().DeleteExpired(cleanupCtx, expiredTokenRetention)
	if err != nil {
		cm.logger.Error("failed to cleanup expired action tokens", slog.Any("error", err))
	}

	sessions, err := cm.store.Sessions().DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired sessions", slog.Any("error", err))
	}

	if tokens > 0 || sessions > 0 {
		cm.logger.Info("expired record cleanup completed",
			slog.Int64("action_tokens_deleted", tokens),
			slog.Int64("sessions_deleted", sessions))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
