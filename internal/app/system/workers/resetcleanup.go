// internal/app/system/workers/resetcleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"go.uber.org/zap"
)

// ResetTokenCleanup is a background worker that clears password reset
// tokens once they expire, so stale hashes do not linger on user records.
type ResetTokenCleanup struct {
	users    *userstore.Store
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewResetTokenCleanup creates a new reset token cleanup worker that runs
// every interval.
func NewResetTokenCleanup(users *userstore.Store, logger *zap.Logger, interval time.Duration) *ResetTokenCleanup {
	return &ResetTokenCleanup{
		users:    users,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *ResetTokenCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reset token cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ResetTokenCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("reset token cleanup worker stopped")
}

func (w *ResetTokenCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(context.Background())
		}
	}
}

// RunOnce performs a single cleanup pass and returns how many tokens were
// cleared.
func (w *ResetTokenCleanup) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	count, err := w.users.ClearExpiredResetTokens(ctx, w.now())
	if err != nil {
		w.log.Error("failed to clear expired reset tokens", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("cleared expired reset tokens", zap.Int64("count", count))
	}
	return count
}
