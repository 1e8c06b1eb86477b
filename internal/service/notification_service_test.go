package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/events"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/observability"
)

type notificationFixture struct {
	service     *NotificationService
	tickets     *stubTicketRepo
	users       *stubUserRepo
	technicians *stubTechnicianRepo
	categories  *stubCategoryRepo
	areas       *stubAreaRepo
	mailer      *stubMailer
	metrics     *observability.Metrics
}

func newNotificationFixture() *notificationFixture {
	tickets := newStubTicketRepo()
	users := newStubUserRepo()
	technicians := newStubTechnicianRepo()
	categories := newStubCategoryRepo()
	areas := newStubAreaRepo()
	mailer := &stubMailer{}
	metrics := observability.NewMetrics()

	svc := NewNotificationService(NotificationDependencies{
		Mailer:         mailer,
		TicketRepo:     tickets,
		UserRepo:       users,
		TechnicianRepo: technicians,
		CategoryRepo:   categories,
		AreaRepo:       areas,
		Logger:         zap.NewNop(),
		Metrics:        metrics,
	})
	return &notificationFixture{
		service:     svc,
		tickets:     tickets,
		users:       users,
		technicians: technicians,
		categories:  categories,
		areas:       areas,
		mailer:      mailer,
		metrics:     metrics,
	}
}

func (f *notificationFixture) seedRequester(t *testing.T) *domain.User {
	t.Helper()
	user := &domain.User{
		DNI:       "20333444",
		FirstName: "Juan",
		LastName:  "Pérez",
		Email:     "jperez@example.edu.ar",
		Role:      domain.UserRoleUser,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func mailKinds(sent []sentMail) []string {
	kinds := make([]string, 0, len(sent))
	for _, mail := range sent {
		kinds = append(kinds, mail.kind)
	}
	return kinds
}

func TestTicketCreatedNotifiesRequesterTechnicianAndChief(t *testing.T) {
	f := newNotificationFixture()
	requester := f.seedRequester(t)
	areaX := "area-x"
	chief := f.technicians.add("chief", nil, &areaX)
	chief.Email = "chief@example.edu.ar"
	assigned := f.technicians.add("t1", nil, &areaX)
	assigned.Email = "t1@example.edu.ar"
	f.areas.add(&domain.Area{ID: areaX, Name: "Redes", ChiefID: &chief.ID})
	f.categories.add(&domain.TicketCategory{ID: "c1", Name: "VPN", Active: true, AreaID: &areaX})

	ticket := &domain.Ticket{
		Description:  "sin acceso a la VPN",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		UserID:       &requester.ID,
		CategoryID:   "c1",
		TechnicianID: &assigned.ID,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	err := f.service.handleTicketCreated(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket_created", "ticket_assigned", "area_ticket"}, mailKinds(f.mailer.sent))
	assert.Equal(t, requester.Email, f.mailer.sent[0].to)
	assert.Equal(t, assigned.Email, f.mailer.sent[1].to)
	assert.Equal(t, chief.Email, f.mailer.sent[2].to)
}

func TestTicketCreatedSkipsChiefMailWhenChiefIsAssignee(t *testing.T) {
	f := newNotificationFixture()
	requester := f.seedRequester(t)
	areaX := "area-x"
	chief := f.technicians.add("chief", nil, &areaX)
	chief.Email = "chief@example.edu.ar"
	f.areas.add(&domain.Area{ID: areaX, Name: "Redes", ChiefID: &chief.ID})
	f.categories.add(&domain.TicketCategory{ID: "c1", Name: "VPN", Active: true, AreaID: &areaX})

	ticket := &domain.Ticket{
		Description:  "impresora de red",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		UserID:       &requester.ID,
		CategoryID:   "c1",
		TechnicianID: &chief.ID,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	err := f.service.handleTicketCreated(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket_created", "ticket_assigned"}, mailKinds(f.mailer.sent))
}

func TestTicketCreatedUnassignedStillNotifiesRequester(t *testing.T) {
	f := newNotificationFixture()
	requester := f.seedRequester(t)
	f.categories.add(&domain.TicketCategory{ID: "c1", Name: "Otros", Active: true})

	ticket := &domain.Ticket{
		Description: "consulta general",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		UserID:      &requester.ID,
		CategoryID:  "c1",
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	err := f.service.handleTicketCreated(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket_created"}, mailKinds(f.mailer.sent))
}

func TestNotificationFailuresNeverPropagate(t *testing.T) {
	f := newNotificationFixture()
	requester := f.seedRequester(t)
	f.mailer.failAll = true

	ticket := &domain.Ticket{
		Description: "x",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		UserID:      &requester.ID,
		CategoryID:  "c1",
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	err := f.service.handleTicketCreated(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
	})
	assert.NoError(t, err)
}

func TestMissingTicketIsSwallowed(t *testing.T) {
	f := newNotificationFixture()

	err := f.service.handleTicketCreated(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "missing",
	})
	assert.NoError(t, err)
}

func TestStatusChangeNotifiesRequester(t *testing.T) {
	f := newNotificationFixture()
	requester := f.seedRequester(t)
	technician := f.technicians.add("t1", nil, nil)

	solution := "se cambió el cable"
	ticket := &domain.Ticket{
		Description:  "sin red",
		Status:       domain.TicketStatusClosed,
		Priority:     domain.TicketPriorityMedium,
		UserID:       &requester.ID,
		CategoryID:   "c1",
		TechnicianID: &technician.ID,
		Solution:     &solution,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	err := f.service.handleTicketStatusChanged(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusInProgress,
			NewStatus: domain.TicketStatusClosed,
			Solution:  &solution,
		},
	})
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "status_update", f.mailer.sent[0].kind)
	assert.Equal(t, requester.Email, f.mailer.sent[0].to)
}
