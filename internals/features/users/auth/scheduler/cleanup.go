package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	authRepo "marathon_backend/internals/features/users/auth/repository"
)

// StartBlacklistCleanupScheduler purges expired revoked tokens once a day until ctx ends.
func StartBlacklistCleanupScheduler(ctx context.Context, db *gorm.DB, log *zap.Logger) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			RunBlacklistCleanup(ctx, db, log)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func RunBlacklistCleanup(ctx context.Context, db *gorm.DB, log *zap.Logger) {
	var total int64
	for {
		n, err := authRepo.PurgeBlacklist(ctx, db, time.Now(), 100)
		if err != nil {
			log.Error("token blacklist cleanup failed", zap.Error(err))
			return
		}
		total += n
		if n < 100 {
			break
		}
	}
	if total > 0 {
		log.Info("token blacklist cleaned", zap.Int64("deleted", total))
	}
}
