package events

import (
	"time"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type         domain.SubjectType `json:"type"`
	UserID       *string            `json:"user_id,omitempty"`
	TechnicianID *string            `json:"technician_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload. TechnicianID is nil when distribution found
// no eligible technician.
type TicketCreatedPayload struct {
	CategoryID   string                `json:"category_id"`
	AreaID       *string               `json:"area_id,omitempty"`
	Priority     domain.TicketPriority `json:"priority"`
	TechnicianID *string               `json:"technician_id,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string  `json:"technician_id"`
	AreaID       *string `json:"area_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Solution  *string             `json:"solution,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}
