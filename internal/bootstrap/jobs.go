package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/pkg/jobs"
)

type reportSweeper interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// reportCleanup removes problem-row reports older than retention. It is
// enqueued after each stored report.
func reportCleanup(store reportSweeper, retention time.Duration, logger *zap.Logger) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		deleted, err := store.CleanupOlderThan(retention)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			logger.Info("expired import reports removed", zap.String("batch_id", job.ID), zap.Int("files", len(deleted)))
		}
		return nil
	}
}
