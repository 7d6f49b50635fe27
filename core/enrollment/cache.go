package enrollment

import (
	"context"
	"fmt"
	"sync"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// StatsFetcher issues the aggregation query returning, atomically, the total
// count, per-department counts and configured limits for one course.
type StatsFetcher interface {
	GetEnrollmentStats(ctx context.Context, courseID string) (Snapshot, error)
}

// LimitCache holds the latest known Snapshot for a single course and provides
// an explicit, idempotent Refresh. It is the only writer of its snapshot;
// readers get copies.
type LimitCache struct {
	courseID string
	fetcher  StatsFetcher
	logger   core.Logger

	mu     sync.Mutex
	snap   Snapshot
	loaded bool
	closed bool
}

func NewLimitCache(courseID string, fetcher StatsFetcher, logger core.Logger) *LimitCache {
	return &LimitCache{
		courseID: courseID,
		fetcher:  fetcher,
		logger:   logger,
		snap:     DefaultSnapshot(courseID),
	}
}

func (c *LimitCache) CourseID() string { return c.courseID }

// Refresh issues one aggregation query and replaces the stored snapshot
// wholesale. On any failure the cache falls back to the safe default snapshot
// instead of keeping stale data or surfacing the error: evaluation must never
// block enrollment outright, the repository enforces the real cap at write
// time. Concurrent refreshes are independent; whichever response resolves
// last wins. Safe to call arbitrarily often.
func (c *LimitCache) Refresh(ctx context.Context) {
	snap, err := c.fetcher.GetEnrollmentStats(ctx, c.courseID)
	if err != nil {
		c.logger.Error(fmt.Sprintf("refreshing enrollment limits for course %s, failing open", c.courseID), err)
		snap = DefaultSnapshot(c.courseID)
	}
	if snap.DepartmentCounts == nil {
		snap.DepartmentCounts = make(map[string]int)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return // late response after Close; must not mutate state
	}
	c.snap = snap
	c.loaded = true
}

// Snapshot returns a copy of the current snapshot and whether a refresh has
// completed since creation.
func (c *LimitCache) Snapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.copy(), c.loaded
}

// Close prevents any in-flight refresh from mutating state. Idempotent.
func (c *LimitCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
