package domain

import "time"

// Occurrence is a capacity-limited bookable slot. Capacity is the number of
// places still free; committed active bookings each hold one place.
type Occurrence struct {
	ID        string
	Name      string
	Date      time.Time
	Location  string
	Capacity  int
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
