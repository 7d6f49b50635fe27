package enrollment

import "github.com/volatiletech/null/v8"

// Snapshot is a wholesale, point-in-time copy of the enrollment counts and
// configured limits for one course. It replaces (never merges with) any prior
// copy on refresh.
//
// TotalEnrolled is not guaranteed to equal the sum of DepartmentCounts:
// enrollments without a department count towards the total only.
type Snapshot struct {
	CourseID         string         `json:"course_id"`
	TotalEnrolled    int            `json:"total_enrolled"`
	DepartmentCounts map[string]int `json:"department_counts"`

	// absent (invalid) limit means uncapped, never zero
	CourseLimit     null.Int `json:"course_limit"`
	DepartmentLimit null.Int `json:"department_limit"`
}

// DefaultSnapshot is the safe fallback used when the aggregation query fails:
// zero counts and no caps, so evaluation never blocks enrollment on error.
// The authoritative limit check is enforced at write time by the repository.
func DefaultSnapshot(courseID string) Snapshot {
	return Snapshot{
		CourseID:         courseID,
		DepartmentCounts: make(map[string]int),
	}
}

func (s Snapshot) copy() Snapshot {
	counts := make(map[string]int, len(s.DepartmentCounts))
	for dept, n := range s.DepartmentCounts {
		counts[dept] = n
	}
	s.DepartmentCounts = counts
	return s
}

// Decision is the admission decision derived from a Snapshot. It is computed
// fresh on every evaluation and never cached independently.
type Decision struct {
	LimitReached            bool     `json:"limit_reached"`
	DepartmentLimitsReached []string `json:"department_limits_reached"`
	CanEnroll               bool     `json:"can_enroll"`
}
