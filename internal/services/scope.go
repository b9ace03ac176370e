// Package services contains the engine's business logic: hierarchy
// operations, rate resolution, timers, reporting aggregation, user
// administration and snapshot backup/restore. Every call is parameterized by
// a Scope resolved once per session.
package services

import (
	"github.com/kappapiana/sentinel-solo/internal/common"
)

// Scope identifies the calling user for the duration of one engine call.
// Matter and time-entry operations are always restricted to Scope.UserID;
// Admin unlocks only the enumerated user-administration and snapshot
// operations, never other users' time data.
type Scope struct {
	UserID int64
	Admin  bool
}

// RequireAdmin fails with ErrPermission unless the scope is elevated.
func (s Scope) RequireAdmin() error {
	if !s.Admin {
		return common.ErrPermission
	}
	return nil
}
