package mailer

import "context"

// Mailer sends helpdesk emails. Every call is fire-and-forget from the
// caller's perspective: a failure is reported so it can be logged, but it
// must never abort or roll back the operation that triggered it.
type Mailer interface {
	SendTicketCreationNotification(ctx context.Context, userEmail, userName, ticketID, description, technicianName string) error
	SendTicketAssignmentNotification(ctx context.Context, technicianEmail, technicianName, ticketID, description, requesterName string) error
	SendAreaTicketNotification(ctx context.Context, chiefEmail, chiefName, ticketID, description, areaName string) error
	SendTicketStatusUpdate(ctx context.Context, userEmail, userName, ticketID, description, status, technicianName, solution string) error
	SendPasswordSetupEmail(ctx context.Context, email, name, token string) error
	SendTechnicianDailySummary(ctx context.Context, technicianEmail, technicianName string, openTickets, closedToday int) error
}
