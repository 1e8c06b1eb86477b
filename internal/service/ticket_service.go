package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/events"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/observability"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation with automatic
// distribution, status and priority transitions, and listing.
type TicketService struct {
	tickets     repository.TicketRepository
	categories  repository.CategoryRepository
	technicians repository.TechnicianRepository
	areas       repository.AreaRepository
	distributor *Distributor
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CategoryRepo   repository.CategoryRepository
	TechnicianRepo repository.TechnicianRepository
	AreaRepo       repository.AreaRepository
	Distributor    *Distributor
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		categories:  deps.CategoryRepo,
		technicians: deps.TechnicianRepo,
		areas:       deps.AreaRepo,
		distributor: deps.Distributor,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
	}
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	Description string
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters for management views.
type TicketListFilter struct {
	UserID       *string
	TechnicianID *string
	CategoryID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TechnicianWorkload summarizes a technician's current ticket counts.
type TechnicianWorkload struct {
	Open        int
	InProgress  int
	ClosedToday int
}

// CreateTicket registers a help request, runs the distribution engine and
// persists the assignment before any notification is attempted. An empty
// candidate tier leaves the ticket unassigned; that is reported to the
// requester as information, never as a failure.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", nil)
		}
		return nil, err
	}
	if !category.Active {
		return nil, apperrors.NewValidationError("category is inactive", map[string]any{"category_id": category.ID})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		UserID:      &userID,
		CategoryID:  category.ID,
		Profile:     category.Profile,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	candidate, err := s.distributor.Distribute(ctx, category)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		if err := s.tickets.AssignTechnician(ctx, ticket.ID, candidate.ID); err != nil {
			return nil, err
		}
		id := candidate.ID
		ticket.TechnicianID = &id
	}
	s.metrics.RecordDistribution(candidate != nil)

	// Assignment is committed at this point; everything below is
	// notification-only and can never undo it.
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			CategoryID:   category.ID,
			AreaID:       category.AreaID,
			Priority:     ticket.Priority,
			TechnicianID: ticket.TechnicianID,
		},
	})
	if ticket.TechnicianID != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    userActor(userID),
			Payload: events.TicketAssignedPayload{
				TechnicianID: *ticket.TechnicianID,
				AreaID:       category.AreaID,
			},
		})
	}
	return ticket, nil
}

// GetTicket fetches a ticket, enforcing visibility: requesters see their own
// tickets, technicians see assigned ones, chiefs see their area, admins see
// everything.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	allowed, err := s.actorCanView(ctx, actor, ticket)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	return ticket, nil
}

// ListUserTickets returns the requester's own tickets.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketListFilter) ([]domain.Ticket, error) {
	filter.UserID = &userID
	filter.TechnicianID = nil
	return s.tickets.ListWithFilter(ctx, toRepoFilter(filter))
}

// ListTechnicianTickets returns tickets assigned to a technician.
func (s *TicketService) ListTechnicianTickets(ctx context.Context, technicianID string, filter TicketListFilter) ([]domain.Ticket, error) {
	filter.TechnicianID = &technicianID
	filter.UserID = nil
	return s.tickets.ListWithFilter(ctx, toRepoFilter(filter))
}

// ListTickets is the management view. Admins see everything; a chief's
// results are narrowed to categories of the area they lead.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor.IsAdmin() {
		return s.tickets.ListWithFilter(ctx, toRepoFilter(filter))
	}
	if !actor.IsChief() {
		return nil, apperrors.NewForbidden("admin or area chief required")
	}

	categories, err := s.categories.ListByArea(ctx, *actor.ManagedAreaID, false)
	if err != nil {
		return nil, err
	}
	areaCategories := make(map[string]bool, len(categories))
	for _, category := range categories {
		areaCategories[category.ID] = true
	}
	if filter.CategoryID != nil {
		if !areaCategories[*filter.CategoryID] {
			return nil, apperrors.NewForbidden("category outside managed area")
		}
		return s.tickets.ListWithFilter(ctx, toRepoFilter(filter))
	}

	var result []domain.Ticket
	for _, category := range categories {
		scoped := filter
		id := category.ID
		scoped.CategoryID = &id
		tickets, err := s.tickets.ListWithFilter(ctx, toRepoFilter(scoped))
		if err != nil {
			return nil, err
		}
		result = append(result, tickets...)
	}
	return result, nil
}

// UpdateStatus applies a status transition. OPEN and IN_PROGRESS move freely
// in both directions; closing requires a non-empty solution; CLOSED is
// terminal. Allowed actors: an admin, the assigned technician, or the chief
// of the area that owns the ticket's category.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Actor, ticketID string, newStatus domain.TicketStatus, solution *string) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewTransitionError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	allowed, err := s.actorCanManage(ctx, actor, ticket)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewForbidden("not allowed to update this ticket")
	}

	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewTransitionError("ticket is closed", nil)
	}
	if newStatus == domain.TicketStatusClosed {
		if solution == nil || strings.TrimSpace(*solution) == "" {
			return nil, apperrors.NewTransitionError("a solution is required to close a ticket", nil)
		}
		trimmed := strings.TrimSpace(*solution)
		ticket.Solution = &trimmed
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorRef(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Solution:  ticket.Solution,
		},
	})
	return ticket, nil
}

// UpdatePriority changes urgency. Only admins and area chiefs may do so.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.Actor, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if !domain.ValidPriority(newPriority) {
		return nil, apperrors.NewTransitionError("unknown priority", map[string]any{"priority": newPriority})
	}
	if !actor.IsAdmin() && !actor.IsChief() {
		return nil, apperrors.NewForbidden("admin or area chief required")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		allowed, err := s.chiefOwnsTicket(ctx, actor, ticket)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperrors.NewForbidden("ticket outside managed area")
		}
	}

	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    actorRef(actor),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// ReassignTicket hands a ticket to a specific technician, overriding the
// automatic distribution. Admin or owning chief only.
func (s *TicketService) ReassignTicket(ctx context.Context, actor *domain.Actor, ticketID, technicianID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		allowed, err := s.chiefOwnsTicket(ctx, actor, ticket)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperrors.NewForbidden("ticket outside managed area")
		}
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewTransitionError("ticket is closed", nil)
	}

	technician, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, err
	}
	if err := s.tickets.AssignTechnician(ctx, ticket.ID, technician.ID); err != nil {
		return nil, err
	}
	ticket.TechnicianID = &technician.ID

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorRef(actor),
		Payload: events.TicketAssignedPayload{
			TechnicianID: technician.ID,
			AreaID:       technician.AreaID,
		},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket permanently. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.Actor, ticketID string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", nil)
		}
		return err
	}
	return nil
}

// Workload returns a technician's current open/in-progress counts and the
// number of tickets closed since local midnight.
func (s *TicketService) Workload(ctx context.Context, technicianID string) (*TechnicianWorkload, error) {
	open, err := s.tickets.CountByTechnicianAndStatus(ctx, technicianID, domain.TicketStatusOpen)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.tickets.CountByTechnicianAndStatus(ctx, technicianID, domain.TicketStatusInProgress)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	closedToday, err := s.tickets.CountClosedSince(ctx, technicianID, midnight)
	if err != nil {
		return nil, err
	}
	return &TechnicianWorkload{Open: open, InProgress: inProgress, ClosedToday: closedToday}, nil
}

func (s *TicketService) actorCanView(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if actor.User != nil {
		return ticket.UserID != nil && *ticket.UserID == actor.User.ID, nil
	}
	return s.actorCanManage(ctx, actor, ticket)
}

func (s *TicketService) actorCanManage(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if actor.Technician == nil {
		return false, nil
	}
	if ticket.TechnicianID != nil && *ticket.TechnicianID == actor.Technician.ID {
		return true, nil
	}
	if actor.IsChief() {
		return s.chiefOwnsTicket(ctx, actor, ticket)
	}
	return false, nil
}

// chiefOwnsTicket reports whether the ticket falls under the actor's managed
// area, either through its category or through its assigned technician.
func (s *TicketService) chiefOwnsTicket(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket) (bool, error) {
	if !actor.IsChief() {
		return false, nil
	}
	category, err := s.categories.GetByID(ctx, ticket.CategoryID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	if category != nil && category.AreaID != nil && actor.ChiefOf(*category.AreaID) {
		return true, nil
	}
	if ticket.TechnicianID != nil {
		technician, err := s.technicians.GetByID(ctx, *ticket.TechnicianID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return false, err
		}
		if technician != nil && technician.AreaID != nil && actor.ChiefOf(*technician.AreaID) {
			return true, nil
		}
	}
	return false, nil
}

func toRepoFilter(filter TicketListFilter) repository.TicketFilter {
	return repository.TicketFilter{
		UserID:       filter.UserID,
		TechnicianID: filter.TechnicianID,
		CategoryID:   filter.CategoryID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

func actorRef(actor *domain.Actor) events.Actor {
	ref := events.Actor{Type: actor.Subject}
	if actor.User != nil {
		ref.UserID = &actor.User.ID
	}
	if actor.Technician != nil {
		ref.TechnicianID = &actor.Technician.ID
	}
	return ref
}
