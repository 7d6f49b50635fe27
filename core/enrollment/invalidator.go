package enrollment

import (
	"context"
	"fmt"
	"sync"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// EnrollmentsTable is the table name the live invalidation subscription is
// scoped to.
const EnrollmentsTable = "enrollments"

// Invalidator subscribes to change events for one course's enrollment rows
// and triggers a cache refresh on every event, whatever the operation or the
// changed field. Events are not buffered or debounced; Refresh is safe to
// call arbitrarily often.
type Invalidator struct {
	cache  *LimitCache
	sub    core.ChangeSubscriber
	logger core.Logger

	mu    sync.Mutex
	unsub core.UnsubscribeFunc
}

func NewInvalidator(cache *LimitCache, sub core.ChangeSubscriber, logger core.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		sub:    sub,
		logger: logger,
	}
}

// Start establishes the subscription. Failure to subscribe is not fatal:
// the cache keeps operating on its last fetched snapshot, only without live
// invalidation.
func (inv *Invalidator) Start(ctx context.Context) {
	filter := core.ChangeFilter{
		Table:    EnrollmentsTable,
		CourseID: inv.cache.CourseID(),
	}
	unsub, err := inv.sub.SubscribeChanges(ctx, filter, func(core.ChangeEvent) {
		// no payload processing: any event is reason enough to re-fetch full state
		inv.cache.Refresh(ctx)
	})
	if err != nil {
		inv.logger.Warn(fmt.Sprintf("live invalidation unavailable for course %s", inv.cache.CourseID()), err)
		return
	}

	inv.mu.Lock()
	inv.unsub = unsub
	inv.mu.Unlock()
}

// Stop releases the subscription. Idempotent; called on every exit path.
func (inv *Invalidator) Stop() {
	inv.mu.Lock()
	unsub := inv.unsub
	inv.unsub = nil
	inv.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
