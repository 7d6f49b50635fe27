package enrollment

import (
	"context"

	"github.com/volatiletech/null/v8"
)

// GateState selects which of the three mutually exclusive presentations the
// admission surface shows for a course.
type GateState string

const (
	// GateOpen: no banner, no modal; enrollment enabled.
	GateOpen GateState = "open"
	// GateDepartmentWarning: non-blocking notice listing departments at their
	// cap; enrollment stays available for other departments.
	GateDepartmentWarning GateState = "department_warning"
	// GateCourseBlocked: blocking presentation showing occupied/max and
	// directing the user to contact administration. Takes precedence over
	// GateDepartmentWarning.
	GateCourseBlocked GateState = "course_blocked"
)

// GateStatus is the full admission state served to the catalog front end.
type GateStatus struct {
	State                   GateState `json:"state"`
	CanEnroll               bool      `json:"can_enroll"`
	LimitReached            bool      `json:"limit_reached"`
	DepartmentLimitsReached []string  `json:"department_limits_reached"`
	Occupied                int       `json:"occupied"`
	Max                     null.Int  `json:"max"`
}

// Gate decides the admission presentation for one course and gates the enroll
// action. The machine has no terminal state: it re-evaluates on every
// snapshot refresh and transitions freely in any direction.
type Gate struct {
	cache *LimitCache
	inv   *Invalidator
	svc   Service
}

// Status evaluates the current snapshot and selects exactly one presentation.
// If both the course-wide and department limits are reached, the blocking
// surface is GateCourseBlocked; the department list still rides along as
// supplementary information.
func (g *Gate) Status() GateStatus {
	snap, _ := g.cache.Snapshot()
	d := Evaluate(snap)

	state := GateOpen
	if len(d.DepartmentLimitsReached) > 0 {
		state = GateDepartmentWarning
	}
	if d.LimitReached {
		state = GateCourseBlocked
	}

	return GateStatus{
		State:                   state,
		CanEnroll:               d.CanEnroll,
		LimitReached:            d.LimitReached,
		DepartmentLimitsReached: d.DepartmentLimitsReached,
		Occupied:                snap.TotalEnrolled,
		Max:                     snap.CourseLimit,
	}
}

// CheckDepartmentLimit is the fast path: it consults only the already-loaded
// department counts without issuing a new query. A department absent from the
// cached counts is allowed optimistically rather than forcing a synchronous
// fetch; responsiveness is favored over strict correctness between refreshes.
func (g *Gate) CheckDepartmentLimit(dept string) bool {
	snap, loaded := g.cache.Snapshot()
	if !loaded || !snap.DepartmentLimit.Valid {
		return true
	}
	count, ok := snap.DepartmentCounts[dept]
	if !ok {
		return true
	}
	return count < snap.DepartmentLimit.Int
}

// Refresh re-fetches the snapshot now.
func (g *Gate) Refresh(ctx context.Context) {
	g.cache.Refresh(ctx)
}

// Enroll gates the enrollment action on the current decision and hands off to
// the enrollment service, which owns the duplicate check and the
// authoritative limit enforcement inside the write transaction.
func (g *Gate) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	if status := g.Status(); !status.CanEnroll {
		return Enrollment{}, ErrCourseFull
	}
	enr, err := g.svc.Enroll(ctx, ne)
	if err == nil {
		// reflect the write locally without waiting for the change feed
		g.cache.Refresh(ctx)
	}
	return enr, err
}

func (g *Gate) close() {
	g.inv.Stop()
	g.cache.Close()
}
