package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/service/metrics"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
)

// cacheGuard wraps the local cache store. Storage failures are logged and
// reported as "no cache"; they never reach the caller.
type cacheGuard struct {
	store interfaces.CacheStore
}

func (g *cacheGuard) load(ctx context.Context) *model.CaseSnapshot {
	if g == nil || g.store == nil {
		return nil
	}

	snapshot, err := g.store.Get(ctx)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("get").Inc()
		logging.From(ctx).Warn("failed to read local cache, treating as empty", "error", err)
		return nil
	}
	return snapshot
}

func (g *cacheGuard) save(ctx context.Context, cases []*model.Case, at time.Time) {
	if g == nil || g.store == nil {
		return
	}

	if err := g.store.Put(ctx, model.NewCaseSnapshot(cases, at)); err != nil {
		metrics.CacheErrors.WithLabelValues("put").Inc()
		logging.From(ctx).Warn("failed to write local cache", "error", err, "count", len(cases))
	}
}

func (g *cacheGuard) hasData(ctx context.Context) bool {
	if g == nil || g.store == nil {
		return false
	}

	has, err := g.store.HasData(ctx)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("has_data").Inc()
		logging.From(ctx).Warn("failed to check local cache", "error", err)
		return false
	}
	return has
}
