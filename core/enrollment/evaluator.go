package enrollment

import "sort"

// Evaluate derives the admission Decision for a Snapshot. Pure function:
// no I/O, no mutation of the snapshot.
//
// A missing course or department limit means uncapped. An over-capacity count
// (e.g. due to a write race) still reports LimitReached without special-casing
// the overshoot.
func Evaluate(snap Snapshot) Decision {
	d := Decision{
		CanEnroll:               true,
		DepartmentLimitsReached: []string{},
	}

	if snap.CourseLimit.Valid && snap.TotalEnrolled >= snap.CourseLimit.Int {
		d.LimitReached = true
		d.CanEnroll = false
	}

	if snap.DepartmentLimit.Valid {
		depts := make([]string, 0, len(snap.DepartmentCounts))
		for dept := range snap.DepartmentCounts {
			depts = append(depts, dept)
		}
		sort.Strings(depts) // map iteration order is random; keep output deterministic
		for _, dept := range depts {
			if snap.DepartmentCounts[dept] >= snap.DepartmentLimit.Int {
				d.DepartmentLimitsReached = append(d.DepartmentLimitsReached, dept)
			}
		}
	}

	return d
}
