package domain

import "time"

// TicketCategory classifies tickets. Profile is the legacy technical-profile
// tag kept for categories not yet migrated into the area model; AreaID, when
// set, scopes distribution to that area.
type TicketCategory struct {
	ID          string
	Name        string
	Description string
	Profile     *string
	Active      bool
	AreaID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
