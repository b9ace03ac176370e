package models

// Matter is a node in a rooted forest. ParentID nil means the node is a
// client (a root, purely organizational); non-nil means a matter proper.
// Code is unique per owner. HourlyRate nil means the rate cascades to an
// ancestor or the owner's default.
type Matter struct {
	ID         int64
	OwnerID    int64
	Code       string
	Name       string
	ParentID   *int64
	HourlyRate *float64
}

// IsRoot reports whether the matter is a client (no parent).
func (m *Matter) IsRoot() bool {
	return m.ParentID == nil
}
