package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/events"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/mailer"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/observability"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
)

const unassignedLabel = "No asignado"

// NotificationService turns domain events into helpdesk emails. It runs
// strictly after the triggering write: a delivery failure is logged and
// counted, never propagated back into ticket state.
type NotificationService struct {
	dispatcher  events.Dispatcher
	mailer      mailer.Mailer
	tickets     repository.TicketRepository
	users       repository.UserRepository
	technicians repository.TechnicianRepository
	categories  repository.CategoryRepository
	areas       repository.AreaRepository
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NotificationDependencies bundles collaborators for notifications.
type NotificationDependencies struct {
	Dispatcher     events.Dispatcher
	Mailer         mailer.Mailer
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	TechnicianRepo repository.TechnicianRepository
	CategoryRepo   repository.CategoryRepository
	AreaRepo       repository.AreaRepository
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		mailer:      deps.Mailer,
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		technicians: deps.TechnicianRepo,
		categories:  deps.CategoryRepo,
		areas:       deps.AreaRepo,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
}

// RegisterHandlers subscribes to the ticket events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

// handleTicketCreated sends up to three mails: requester confirmation,
// technician assignment, and a heads-up to the area chief when the chief is
// not the assignee.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.warn("ticket lookup for notification failed", event.TicketID, err)
		return nil
	}

	var technician *domain.Technician
	if ticket.TechnicianID != nil {
		technician, err = n.technicians.GetByID(ctx, *ticket.TechnicianID)
		if err != nil {
			n.warn("technician lookup for notification failed", event.TicketID, err)
		}
	}
	technicianName := unassignedLabel
	if technician != nil {
		technicianName = technician.Name
	}

	var requester *domain.User
	if ticket.UserID != nil {
		requester, err = n.users.GetByID(ctx, *ticket.UserID)
		if err != nil {
			n.warn("requester lookup for notification failed", event.TicketID, err)
		}
	}
	if requester != nil {
		if err := n.mailer.SendTicketCreationNotification(ctx,
			requester.Email, requester.FullName(), ticket.ID, ticket.Description, technicianName); err != nil {
			n.warn("creation mail failed", ticket.ID, err)
		}
	}

	requesterName := ""
	if requester != nil {
		requesterName = requester.FullName()
	}
	if technician != nil {
		if err := n.mailer.SendTicketAssignmentNotification(ctx,
			technician.Email, technician.Name, ticket.ID, ticket.Description, requesterName); err != nil {
			n.warn("assignment mail failed", ticket.ID, err)
		}
	}

	n.notifyAreaChief(ctx, ticket, technician)
	return nil
}

// handleTicketStatusChanged tells the requester about status moves,
// including the recorded solution on close.
func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		n.warn("ticket lookup for notification failed", event.TicketID, err)
		return nil
	}
	if ticket.UserID == nil {
		return nil
	}
	requester, err := n.users.GetByID(ctx, *ticket.UserID)
	if err != nil {
		n.warn("requester lookup for notification failed", event.TicketID, err)
		return nil
	}

	technicianName := unassignedLabel
	if ticket.TechnicianID != nil {
		if technician, err := n.technicians.GetByID(ctx, *ticket.TechnicianID); err == nil {
			technicianName = technician.Name
		}
	}
	solution := ""
	if payload.Solution != nil {
		solution = *payload.Solution
	}

	if err := n.mailer.SendTicketStatusUpdate(ctx,
		requester.Email, requester.FullName(), ticket.ID, ticket.Description,
		string(payload.NewStatus), technicianName, solution); err != nil {
		n.warn("status mail failed", ticket.ID, err)
	}
	return nil
}

func (n *NotificationService) notifyAreaChief(ctx context.Context, ticket *domain.Ticket, assignee *domain.Technician) {
	category, err := n.categories.GetByID(ctx, ticket.CategoryID)
	if err != nil || category.AreaID == nil {
		return
	}
	area, err := n.areas.GetByID(ctx, *category.AreaID)
	if err != nil || area.ChiefID == nil {
		return
	}
	if assignee != nil && assignee.ID == *area.ChiefID {
		return
	}
	chief, err := n.technicians.GetByID(ctx, *area.ChiefID)
	if err != nil {
		n.warn("chief lookup for notification failed", ticket.ID, err)
		return
	}
	if err := n.mailer.SendAreaTicketNotification(ctx,
		chief.Email, chief.Name, ticket.ID, ticket.Description, area.Name); err != nil {
		n.warn("area chief mail failed", ticket.ID, err)
	}
}

func (n *NotificationService) warn(msg, ticketID string, err error) {
	n.metrics.RecordNotificationFailure()
	n.logger.Warn(msg, zap.String("ticket_id", ticketID), zap.Error(err))
}
