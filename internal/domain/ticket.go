package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// ValidStatus reports whether s is a recognized ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow     TicketPriority = "LOW"
	TicketPriorityMedium  TicketPriority = "MEDIUM"
	TicketPriorityHigh    TicketPriority = "HIGH"
	TicketPriorityMaximum TicketPriority = "MAXIMUM"
)

// ValidPriority reports whether p is a recognized priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityMaximum:
		return true
	}
	return false
}

// Ticket is the aggregate for help requests. Profile is copied from the
// category at creation time and drives the legacy distribution fallback.
type Ticket struct {
	ID           string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	UserID       *string
	TechnicianID *string
	CategoryID   string
	Profile      *string
	Solution     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Assigned reports whether the ticket has a technician.
func (t *Ticket) Assigned() bool {
	return t.TechnicianID != nil && *t.TechnicianID != ""
}
