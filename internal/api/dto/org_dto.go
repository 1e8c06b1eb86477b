package dto

import (
	"time"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// AreaRequest payload for area create/update.
type AreaRequest struct {
	Name    string  `json:"name"`
	ChiefID *string `json:"chief_id"`
}

// AreaResponse is the external shape of an area.
type AreaResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	ChiefID *string `json:"chief_id"`
}

// SetChiefRequest payload.
type SetChiefRequest struct {
	TechnicianID string `json:"technician_id"`
}

// CategoryRequest payload for category create/update.
type CategoryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Profile     *string `json:"profile"`
	Active      *bool   `json:"active"`
	AreaID      *string `json:"area_id"`
}

// CategoryResponse is the external shape of a ticket category.
type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Profile     *string `json:"profile"`
	Active      bool    `json:"active"`
	AreaID      *string `json:"area_id"`
}

// TechnicianRequest payload for technician create/update.
type TechnicianRequest struct {
	DNI     string  `json:"dni"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Profile *string `json:"profile"`
	AreaID  *string `json:"area_id"`
}

// TechnicianResponse is the external shape of a technician.
type TechnicianResponse struct {
	ID      string  `json:"id"`
	DNI     string  `json:"dni"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Profile *string `json:"profile"`
	AreaID  *string `json:"area_id"`
}

// AssignmentRequest payload for explicit category grants.
type AssignmentRequest struct {
	TechnicianID string `json:"technician_id"`
	CategoryID   string `json:"category_id"`
}

// AssignmentResponse is the external shape of a grant.
type AssignmentResponse struct {
	ID           string    `json:"id"`
	TechnicianID string    `json:"technician_id"`
	CategoryID   string    `json:"category_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// CatalogAreaResponse is one entry of the public request-form catalog.
type CatalogAreaResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Categories []CategoryResponse `json:"categories"`
}

// CategoryResponseFrom maps a domain category.
func CategoryResponseFrom(category *domain.TicketCategory) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Profile:     category.Profile,
		Active:      category.Active,
		AreaID:      category.AreaID,
	}
}
