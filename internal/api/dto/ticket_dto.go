package dto

import (
	"time"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string                `json:"category_id"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateStatusRequest payload for status transitions.
type UpdateStatusRequest struct {
	Status   domain.TicketStatus `json:"status"`
	Solution *string             `json:"solution,omitempty"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// ReassignRequest payload for manual reassignment.
type ReassignRequest struct {
	TechnicianID string `json:"technician_id"`
}

// TicketResponse is the external shape of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	UserID       *string               `json:"user_id"`
	TechnicianID *string               `json:"technician_id"`
	CategoryID   string                `json:"category_id"`
	Solution     *string               `json:"solution,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// WorkloadResponse summarizes a technician's counts.
type WorkloadResponse struct {
	Open        int `json:"open"`
	InProgress  int `json:"in_progress"`
	ClosedToday int `json:"closed_today"`
}
