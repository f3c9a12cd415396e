package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/ratelimit"
)

const (
	purgeLockKey = "ratelimit:purge"
	purgeLockTTL = 5 * time.Minute
)

// distributedLock is the subset of the Redis client the purge job needs to
// keep multiple instances from purging at once.
type distributedLock interface {
	AcquireLock(ctx context.Context, key string, expiration time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// purgeJob periodically removes expired rate limit entries from the counter
// store. With a shared backend (redis, database) a Redis lock ensures only
// one instance runs the purge.
type purgeJob struct {
	store     ratelimit.Store
	lock      distributedLock
	retention time.Duration
	cron      *cron.Cron
	logger    logging.Logger
}

func newPurgeJob(store ratelimit.Store, lock distributedLock, retention time.Duration) *purgeJob {
	return &purgeJob{
		store:     store,
		lock:      lock,
		retention: retention,
		cron:      cron.New(),
		logger:    logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "ratelimit-purge"}),
	}
}

func (j *purgeJob) Start() {
	j.cron.AddFunc("@hourly", j.run)
	j.cron.Start()
}

func (j *purgeJob) Stop() {
	j.cron.Stop()
}

func (j *purgeJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if j.lock != nil {
		acquired, err := j.lock.AcquireLock(ctx, purgeLockKey, purgeLockTTL)
		if err != nil {
			j.logger.Warn("Failed to acquire purge lock", logging.Err(err))
			return
		}
		if !acquired {
			return
		}
		defer j.lock.ReleaseLock(ctx, purgeLockKey)
	}

	purged, err := j.store.PurgeExpired(ctx, time.Now().Add(-j.retention))
	if err != nil {
		j.logger.Warn("Rate limit purge failed", logging.Err(err))
		return
	}

	if purged > 0 {
		j.logger.Info("Purged expired rate limit entries",
			logging.Field{Key: "purged", Value: purged})
	}
}
