// Package models defines the persistent records of the Sentinel Solo
// engine: users, matters, time entries, sessions and the snapshot document.
package models

// User is an account that exclusively owns matters and time entries.
// PasswordHash is an opaque bcrypt hash; it is never compared in plaintext.
// DefaultHourlyRate is the last stop of the rate-resolution cascade, nil
// when the user has none.
type User struct {
	ID                int64
	Username          string
	PasswordHash      string
	IsAdmin           bool
	DefaultHourlyRate *float64
}
