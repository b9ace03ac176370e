package models

import "time"

// Snapshot is the self-describing whole-database document used for
// backup/restore. Ids and parent links are carried verbatim so the full
// forest and all entries can be reconstructed exactly.
type Snapshot struct {
	Version     int                 `json:"version"`
	ExportedAt  time.Time           `json:"exported_at"`
	Users       []SnapshotUser      `json:"users"`
	Matters     []SnapshotMatter    `json:"matters"`
	TimeEntries []SnapshotTimeEntry `json:"time_entries"`
}

// SnapshotVersion is the current document format version.
const SnapshotVersion = 1

// SnapshotUser carries a user with its opaque credential hash. The hash is
// not invertible, so including it verbatim is safe and lets restored users
// keep their passwords.
type SnapshotUser struct {
	ID                int64    `json:"id"`
	Username          string   `json:"username"`
	PasswordHash      string   `json:"password_hash"`
	IsAdmin           bool     `json:"is_admin"`
	DefaultHourlyRate *float64 `json:"default_hourly_rate,omitempty"`
}

// SnapshotMatter carries a matter with its parent link as a stable id.
type SnapshotMatter struct {
	ID         int64    `json:"id"`
	OwnerID    int64    `json:"owner_id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	ParentID   *int64   `json:"parent_id,omitempty"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
}

// SnapshotTimeEntry carries a time entry with its matter reference.
type SnapshotTimeEntry struct {
	ID              int64      `json:"id"`
	OwnerID         int64      `json:"owner_id"`
	MatterID        int64      `json:"matter_id"`
	Description     string     `json:"description"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	Invoiced        bool       `json:"invoiced"`
	ActivityGroupID *int64     `json:"activity_group_id,omitempty"`
}
