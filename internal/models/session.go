package models

import "time"

// Session is a revocable login session. ID is the jti embedded in the
// issued token; deleting the row invalidates the token regardless of its
// expiry (snapshot import wipes all rows to force re-authentication).
type Session struct {
	ID        string
	UserID    int64
	Expires   time.Time
	CreatedAt time.Time
}
