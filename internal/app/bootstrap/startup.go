// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"github.com/dalemusser/studytrack/internal/app/system/timeouts"
	"github.com/dalemusser/studytrack/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// resetCleanup is started in Startup and stopped in Shutdown.
var resetCleanup *workers.ResetTokenCleanup

// background scopes goroutines owned by the handler (the per-IP limiter's
// sweeper). Shutdown cancels it.
var background struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func backgroundContext() context.Context {
	if background.ctx == nil {
		background.ctx, background.cancel = context.WithCancel(context.Background())
	}
	return background.ctx
}

func stopBackground() {
	if background.cancel != nil {
		background.cancel()
	}
	background.ctx, background.cancel = nil, nil
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	if deps.StudyTrackMongoDatabase != nil && appCfg.ResetCleanupInterval > 0 {
		resetCleanup = workers.NewResetTokenCleanup(userstore.New(deps.StudyTrackMongoDatabase), logger, appCfg.ResetCleanupInterval)
		resetCleanup.Start()
	}
	return nil
}
