package domain

import "time"

// User is an account that can own occurrences and request bookings.
// PasswordHash is never exposed outside the storage and auth layers.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
