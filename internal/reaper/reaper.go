// Package reaper is the coordinator's background maintenance task (§4.7):
// it releases claims idle past T_idle and purges completions older than
// T_retain, on its own ticker, through the shared request repository.
package reaper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"pickcoordinator/internal/config"
	"pickcoordinator/internal/logger"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/observability/metrics"
	"pickcoordinator/internal/repository"
)

// lockKey and lockTTL back the single-instance guard: when more than one
// replica of the coordinator runs the reaper loop, only the one holding the
// Redis lock performs a pass.
const (
	lockKey = "pickcoordinator:reaper:lock"
	lockTTL = 5 * time.Minute
)

// Reaper runs the idle-release and aged-purge duties on a timer.
type Reaper struct {
	requests repository.RequestRepository
	redis    *redis.Client
	cfg      config.PickConfig
	now      func() time.Time
	metrics  *metrics.Metrics
}

// New builds a Reaper. redisClient may be nil, in which case every pass
// runs unconditionally (single-instance deployments, and tests).
func New(requests repository.RequestRepository, redisClient *redis.Client, cfg config.PickConfig) *Reaper {
	return &Reaper{
		requests: requests,
		redis:    redisClient,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetMetrics attaches a metrics recorder. Optional; left nil, a pass simply
// doesn't record its release/purge counts (used by tests).
func (r *Reaper) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Start launches the ticker goroutine and returns immediately; it stops
// when ctx is cancelled. Missed ticks are not compensated — the next tick
// does as much work as is needed.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		interval := r.cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("reaper started")
		for {
			select {
			case <-ctx.Done():
				logger.Info("reaper stopped")
				return
			case <-ticker.C:
				if !r.cfg.AutoCleanupEnabled {
					continue
				}
				r.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce performs one pass: stale-claim release, then aged-completion
// purge. It acquires the single-instance lock first and is a no-op if it
// cannot. Errors are logged, not returned — a failed pass is retried at the
// next tick.
func (r *Reaper) RunOnce(ctx context.Context) {
	if !r.acquireLock(ctx) {
		return
	}
	defer r.releaseLock(ctx)

	released, err := r.releaseStaleClaims(ctx)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("reaper: stale-claim release failed")
	}

	purged, err := r.purgeAgedCompletions(ctx)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("reaper: aged-completion purge failed")
	}

	if released > 0 || purged > 0 {
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"released": released,
			"purged":   purged,
		}).Info("reaper pass complete")
	}

	if r.metrics != nil {
		r.metrics.RecordReaperPass(released, purged)
		r.recordActiveClaims(ctx)
	}
}

// recordActiveClaims reports the current in-progress claim count. Best
// effort: a failed count is logged and skipped rather than blocking the
// rest of the pass.
func (r *Reaper) recordActiveClaims(ctx context.Context) {
	inProgress := models.StatusInProgress
	_, total, err := r.requests.List(ctx, repository.RequestFilters{Status: &inProgress}, 0, 1)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("reaper: active claim count failed")
		return
	}
	r.metrics.SetActiveClaims(float64(total))
}

func (r *Reaper) acquireLock(ctx context.Context) bool {
	if r.redis == nil {
		return true
	}
	ok, err := r.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("reaper: lock acquisition failed, skipping pass")
		return false
	}
	return ok
}

// Stats is a read-only snapshot of the reaper's backlog, for operators
// watching how much work the next pass will do.
type Stats struct {
	CompletedTotal        int64 `json:"completed_total"`
	AgedCompletionsPending int   `json:"aged_completions_pending"`
	StaleClaimsPending    int   `json:"stale_claims_pending"`
}

// GetStats computes the current backlog without mutating anything, mirroring
// the Python original's CleanupService.get_stats().
func (r *Reaper) GetStats(ctx context.Context) (Stats, error) {
	completedStatus := models.StatusCompleted
	_, total, err := r.requests.List(ctx, repository.RequestFilters{Status: &completedStatus}, 0, 1)
	if err != nil {
		return Stats{}, err
	}

	aged, err := r.requests.AgedCompletions(ctx, r.now().Add(-r.cfg.AutoCleanupAge))
	if err != nil {
		return Stats{}, err
	}

	stale, err := r.requests.StaleClaims(ctx, r.now().Add(-r.cfg.PickTimeout))
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		CompletedTotal:         total,
		AgedCompletionsPending: len(aged),
		StaleClaimsPending:     len(stale),
	}, nil
}

func (r *Reaper) releaseLock(ctx context.Context) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, lockKey).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("reaper: lock release failed")
	}
}

// releaseStaleClaims applies the release transition to every in_progress
// request whose last_activity_at is older than T_idle, preserving item
// progress and started_at.
func (r *Reaper) releaseStaleClaims(ctx context.Context) (int, error) {
	threshold := r.now().Add(-r.cfg.PickTimeout)
	stale, err := r.requests.StaleClaims(ctx, threshold)
	if err != nil {
		return 0, err
	}

	released := 0
	now := r.now()
	for _, req := range stale {
		ok, err := r.requests.TryTransition(ctx, req.Name, models.StatusInProgress, map[string]interface{}{
			"status":           models.StatusPending,
			"claimant_id":      nil,
			"last_activity_at": now,
		})
		if err != nil {
			logger.WithContext(ctx).WithError(err).WithField("request", req.Name).Error("reaper: release failed")
			continue
		}
		if ok {
			logger.WithContext(ctx).WithField("request", req.Name).Info("reaper: released stale claim")
			released++
		}
	}
	return released, nil
}

// purgeAgedCompletions deletes completed requests older than T_retain,
// cascading to their items.
func (r *Reaper) purgeAgedCompletions(ctx context.Context) (int, error) {
	threshold := r.now().Add(-r.cfg.AutoCleanupAge)
	aged, err := r.requests.AgedCompletions(ctx, threshold)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, req := range aged {
		if err := r.requests.Delete(ctx, req.ID); err != nil {
			logger.WithContext(ctx).WithError(err).WithField("request", req.Name).Error("reaper: purge failed")
			continue
		}
		logger.WithContext(ctx).WithField("request", req.Name).Info("reaper: purged aged completion")
		purged++
	}
	return purged, nil
}
