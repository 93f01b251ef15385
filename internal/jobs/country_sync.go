package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/laundry/api/internal/importer"
	"github.com/stwalsh4118/laundry/api/internal/logger"
)

// Country sync lease.
const (
	CountrySyncJobName = "country-sync"
	CountrySyncLockKey = "laundry:jobs:country-sync"
	CountrySyncLockTTL = 20 * time.Minute
)

// CountryRunner runs one country import.
type CountryRunner interface {
	Run(ctx context.Context) (importer.Summary, error)
}

// CountrySyncJob refreshes countries and currencies from upstream. With a
// locker, only one replica runs it at a time.
type CountrySyncJob struct {
	runner CountryRunner
	locker Locker
	log    *logger.Logger
}

// NewCountrySyncJob creates the job. locker may be nil.
func NewCountrySyncJob(runner CountryRunner, locker Locker, log *logger.Logger) *CountrySyncJob {
	return &CountrySyncJob{
		runner: runner,
		locker: locker,
		log:    log.WithComponent("jobs.country_sync"),
	}
}

func (j *CountrySyncJob) Name() string { return CountrySyncJobName }

func (j *CountrySyncJob) Run(ctx context.Context) error {
	if j.locker != nil {
		token, ok, err := j.locker.TryLock(ctx, CountrySyncLockKey, CountrySyncLockTTL)
		if err != nil {
			return fmt.Errorf("acquire %s: %w", CountrySyncLockKey, err)
		}
		if !ok {
			j.log.Info("Country sync already running elsewhere", nil)
			return ErrSkipped
		}
		defer func() {
			// Release even when ctx has expired.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := j.locker.Release(releaseCtx, CountrySyncLockKey, token); err != nil {
				j.log.Warn("Failed to release country sync lock", logger.Fields{"error": err.Error()})
			}
		}()
	}

	summary, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}
	j.log.Info("Country sync finished", summary.Fields())
	return nil
}
