package domain

import "time"

// TechnicianCategoryAssignment is an explicit "this technician handles this
// category" grant, unique per (technician, category) pair and independent of
// area membership or profile tags.
type TechnicianCategoryAssignment struct {
	ID           string
	TechnicianID string
	CategoryID   string
	AssignedAt   time.Time
}
