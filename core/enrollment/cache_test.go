package enrollment

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

type stubFetcher struct {
	mu    sync.Mutex
	snaps []Snapshot
	errs  []error
	calls int

	// when set, each call blocks until released
	gate chan struct{}
}

func (f *stubFetcher) GetEnrollmentStats(_ context.Context, courseID string) (Snapshot, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Snapshot{}, f.errs[i]
	}
	if i < len(f.snaps) {
		return f.snaps[i], nil
	}
	return DefaultSnapshot(courseID), nil
}

func testLogger() core.Logger {
	return core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
}

func TestLimitCacheRefresh(t *testing.T) {
	fetcher := &stubFetcher{snaps: []Snapshot{{
		CourseID:         "c1",
		TotalEnrolled:    7,
		DepartmentCounts: map[string]int{"TI": 3},
		CourseLimit:      null.IntFrom(10),
	}}}
	cache := NewLimitCache("c1", fetcher, testLogger())

	snap, loaded := cache.Snapshot()
	assert.False(t, loaded)
	assert.Equal(t, DefaultSnapshot("c1"), snap)

	cache.Refresh(context.Background())

	snap, loaded = cache.Snapshot()
	assert.True(t, loaded)
	assert.Equal(t, 7, snap.TotalEnrolled)
	assert.Equal(t, map[string]int{"TI": 3}, snap.DepartmentCounts)
}

func TestLimitCacheFailsOpen(t *testing.T) {
	fetcher := &stubFetcher{
		snaps: []Snapshot{{
			CourseID:      "c1",
			TotalEnrolled: 30,
			CourseLimit:   null.IntFrom(30),
		}, {}},
		errs: []error{nil, errors.New("boom")},
	}
	cache := NewLimitCache("c1", fetcher, testLogger())

	cache.Refresh(context.Background())
	snap, _ := cache.Snapshot()
	assert.True(t, Evaluate(snap).LimitReached)

	// a failed refresh falls back to the safe default, not the stale snapshot
	cache.Refresh(context.Background())
	snap, loaded := cache.Snapshot()
	assert.True(t, loaded)

	d := Evaluate(snap)
	assert.False(t, d.LimitReached)
	assert.True(t, d.CanEnroll)
	assert.Equal(t, 0, snap.TotalEnrolled)
}

func TestLimitCacheSnapshotIsACopy(t *testing.T) {
	fetcher := &stubFetcher{snaps: []Snapshot{{
		CourseID:         "c1",
		DepartmentCounts: map[string]int{"TI": 3},
	}}}
	cache := NewLimitCache("c1", fetcher, testLogger())
	cache.Refresh(context.Background())

	snap, _ := cache.Snapshot()
	snap.DepartmentCounts["TI"] = 999

	snap2, _ := cache.Snapshot()
	assert.Equal(t, 3, snap2.DepartmentCounts["TI"])
}

func TestLimitCacheLastWriteWins(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &stubFetcher{
		snaps: []Snapshot{
			{CourseID: "c1", TotalEnrolled: 1},
			{CourseID: "c1", TotalEnrolled: 2},
		},
		gate: gate,
	}
	cache := NewLimitCache("c1", fetcher, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Refresh(context.Background())
		}()
	}
	close(gate) // release both in-flight refreshes
	wg.Wait()

	snap, loaded := cache.Snapshot()
	assert.True(t, loaded)
	// whichever response resolved last won; both were valid outcomes
	assert.Contains(t, []int{1, 2}, snap.TotalEnrolled)
}

func TestLimitCacheNoWriteAfterClose(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &stubFetcher{
		snaps: []Snapshot{{CourseID: "c1", TotalEnrolled: 99}},
		gate:  gate,
	}
	cache := NewLimitCache("c1", fetcher, testLogger())

	done := make(chan struct{})
	go func() {
		cache.Refresh(context.Background())
		close(done)
	}()

	cache.Close()
	close(gate) // let the in-flight refresh resolve late
	<-done

	snap, loaded := cache.Snapshot()
	assert.False(t, loaded, "late response must not mutate state after Close")
	assert.Equal(t, 0, snap.TotalEnrolled)
}
