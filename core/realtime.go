package core

import "context"

// ChangeOp identifies the kind of row change carried by a ChangeEvent.
type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "INSERT"
	ChangeOpUpdate ChangeOp = "UPDATE"
	ChangeOpDelete ChangeOp = "DELETE"
)

// ChangeEvent notifies subscribers that a row of `Table` scoped to `CourseID`
// was inserted, updated or deleted. It carries no row payload on purpose:
// consumers re-fetch full state instead of applying deltas.
type ChangeEvent struct {
	Table    string   `json:"table"`
	Op       ChangeOp `json:"op"`
	CourseID string   `json:"course_id"`
}

// ChangeFilter scopes a subscription to one table and one course.
// An empty field matches everything.
type ChangeFilter struct {
	Table    string
	CourseID string
}

func (f ChangeFilter) Matches(evt ChangeEvent) bool {
	if f.Table != "" && f.Table != evt.Table {
		return false
	}
	if f.CourseID != "" && f.CourseID != evt.CourseID {
		return false
	}
	return true
}

type (
	// UnsubscribeFunc releases a change subscription. Safe to call more than once.
	UnsubscribeFunc func()

	// ChangeSubscriber delivers change events matching a filter, at least once,
	// until the returned UnsubscribeFunc is called or ctx is done.
	ChangeSubscriber interface {
		SubscribeChanges(ctx context.Context, filter ChangeFilter, fn func(ChangeEvent)) (UnsubscribeFunc, error)
	}
)
