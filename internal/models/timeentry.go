package models

import "time"

// TimeEntry is a span of billable time logged against a non-root matter.
//
// OwnerID is a denormalized copy of the matter's owner, kept consistent on
// creation; scoping checks use it even if the matter is later moved.
// EndTime nil means the timer is still running; at most one open entry may
// exist per owner. ActivityGroupID links "continued" segments to the first
// entry of the activity (the first segment stores nil).
type TimeEntry struct {
	ID              int64
	OwnerID         int64
	MatterID        int64
	Description     string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds float64
	Invoiced        bool
	ActivityGroupID *int64
}

// Open reports whether the entry's timer is still running.
func (e *TimeEntry) Open() bool {
	return e.EndTime == nil
}
