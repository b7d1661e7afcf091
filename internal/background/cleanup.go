package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is a single retention task: delete rows past their expiry
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type task struct {
	name    string
	sweeper Sweeper
}

// CleanupManager periodically deletes expired login attempts, revoked
// token rows and session rows. Expiry is enforced lazily at read time;
// this only keeps the tables from growing without bound.
type CleanupManager struct {
	tasks    []task
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds a named retention task
func (cm *CleanupManager) Register(name string, sweeper Sweeper) {
	cm.tasks = append(cm.tasks, task{name: name, sweeper: sweeper})
}

// Start begins the periodic cleanup loop. Blocks until Stop is called
// or the context is cancelled.
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
	for _, t := range cm.tasks {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		deleted, err := t.sweeper.DeleteExpired(sweepCtx)
		cancel()

		if err != nil {
			cm.logger.Error("cleanup task failed",
				slog.String("task", t.name),
				slog.Any("error", err))
			continue
		}

		if deleted > 0 {
			cm.logger.Info("cleanup task completed",
				slog.String("task", t.name),
				slog.Int64("rows_deleted", deleted))
		}
	}
}

// Stop signals the cleanup loop to exit
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
