package domain

import "time"

// Area is an organizational division. ChiefID points at the technician who
// leads it; a technician leads at most one area.
type Area struct {
	ID        string
	Name      string
	ChiefID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
