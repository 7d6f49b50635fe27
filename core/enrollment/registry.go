package enrollment

import (
	"context"
	"sync"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// Registry maintains one Gate per course, created on first use and released
// when the course view goes away or the registry shuts down. Acquiring a gate
// loads its snapshot and starts live invalidation; releasing it always tears
// the subscription down.
type Registry struct {
	svc     Service
	fetcher StatsFetcher
	sub     core.ChangeSubscriber
	logger  core.Logger

	// subscriptions outlive the request that created the gate
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	gates map[string]*Gate
}

func NewRegistry(svc Service, fetcher StatsFetcher, sub core.ChangeSubscriber, logger core.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		svc:     svc,
		fetcher: fetcher,
		sub:     sub,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		gates:   make(map[string]*Gate),
	}
}

// Gate returns the admission gate for courseID, creating it on first use.
func (r *Registry) Gate(ctx context.Context, courseID string) *Gate {
	r.mu.Lock()
	if g, ok := r.gates[courseID]; ok {
		r.mu.Unlock()
		return g
	}

	cache := NewLimitCache(courseID, r.fetcher, r.logger)
	g := &Gate{
		cache: cache,
		inv:   NewInvalidator(cache, r.sub, r.logger),
		svc:   r.svc,
	}
	r.gates[courseID] = g
	r.mu.Unlock()

	g.cache.Refresh(ctx)
	g.inv.Start(r.ctx)
	return g
}

// Release tears down the gate for courseID, if any.
func (r *Registry) Release(courseID string) {
	r.mu.Lock()
	g, ok := r.gates[courseID]
	delete(r.gates, courseID)
	r.mu.Unlock()

	if ok {
		g.close()
	}
}

// Close releases every gate.
func (r *Registry) Close() {
	r.cancel()

	r.mu.Lock()
	gates := r.gates
	r.gates = make(map[string]*Gate)
	r.mu.Unlock()

	for _, g := range gates {
		g.close()
	}
}
