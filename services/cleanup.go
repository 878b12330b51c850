package services

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/services/cache"
)

// CacheJanitor prunes stale embedding cache files on a daily schedule so
// the disk cache does not grow without bound.
type CacheJanitor struct {
	store     cache.Pruner
	ttl       time.Duration
	scheduler *gocron.Scheduler
}

func NewCacheJanitor(store cache.Pruner, ttlDays int) *CacheJanitor {
	if ttlDays <= 0 {
		ttlDays = 30
	}
	return &CacheJanitor{
		store:     store,
		ttl:       time.Duration(ttlDays) * 24 * time.Hour,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start runs an immediate prune and then schedules a daily one. No-op when
// the configured cache backend does not support pruning.
func (j *CacheJanitor) Start() {
	if j.store == nil {
		return
	}
	job := func() {
		removed, err := j.store.Prune(j.ttl)
		if err != nil {
			logger.Error("cache prune failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("pruned stale embedding cache entries", "removed", removed)
		}
	}
	job()
	j.scheduler.Every(1).Day().At("03:00").Do(job)
	j.scheduler.StartAsync()
}

func (j *CacheJanitor) Stop() {
	j.scheduler.Stop()
}
