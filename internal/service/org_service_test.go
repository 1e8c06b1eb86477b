package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// ── In-memory AssignmentRepository stub ──────────────────────────────────────

type stubAssignmentRepo struct {
	assignments map[string]domain.TechnicianCategoryAssignment
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{assignments: make(map[string]domain.TechnicianCategoryAssignment)}
}

func assignmentKey(technicianID, categoryID string) string {
	return technicianID + "/" + categoryID
}

func (r *stubAssignmentRepo) Create(_ context.Context, assignment *domain.TechnicianCategoryAssignment) error {
	assignment.ID = fmt.Sprintf("asg-%d", len(r.assignments)+1)
	assignment.AssignedAt = time.Now()
	r.assignments[assignmentKey(assignment.TechnicianID, assignment.CategoryID)] = *assignment
	return nil
}

func (r *stubAssignmentRepo) Delete(_ context.Context, technicianID, categoryID string) error {
	key := assignmentKey(technicianID, categoryID)
	if _, ok := r.assignments[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.assignments, key)
	return nil
}

func (r *stubAssignmentRepo) Exists(_ context.Context, technicianID, categoryID string) (bool, error) {
	_, ok := r.assignments[assignmentKey(technicianID, categoryID)]
	return ok, nil
}

func (r *stubAssignmentRepo) ListByCategory(_ context.Context, categoryID string) ([]domain.TechnicianCategoryAssignment, error) {
	var result []domain.TechnicianCategoryAssignment
	for _, assignment := range r.assignments {
		if assignment.CategoryID == categoryID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

func (r *stubAssignmentRepo) ListByTechnician(_ context.Context, technicianID string) ([]domain.TechnicianCategoryAssignment, error) {
	var result []domain.TechnicianCategoryAssignment
	for _, assignment := range r.assignments {
		if assignment.TechnicianID == technicianID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

var _ repository.AssignmentRepository = (*stubAssignmentRepo)(nil)

// ── Recording mailer ─────────────────────────────────────────────────────────

type sentMail struct {
	kind  string
	to    string
	token string
}

type stubMailer struct {
	sent    []sentMail
	failAll bool
}

func (m *stubMailer) record(kind, to, token string) error {
	if m.failAll {
		return fmt.Errorf("mailer unavailable")
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, token: token})
	return nil
}

func (m *stubMailer) SendTicketCreationNotification(_ context.Context, userEmail, _, _, _, _ string) error {
	return m.record("ticket_created", userEmail, "")
}

func (m *stubMailer) SendTicketAssignmentNotification(_ context.Context, technicianEmail, _, _, _, _ string) error {
	return m.record("ticket_assigned", technicianEmail, "")
}

func (m *stubMailer) SendAreaTicketNotification(_ context.Context, chiefEmail, _, _, _, _ string) error {
	return m.record("area_ticket", chiefEmail, "")
}

func (m *stubMailer) SendTicketStatusUpdate(_ context.Context, userEmail, _, _, _, _, _, _ string) error {
	return m.record("status_update", userEmail, "")
}

func (m *stubMailer) SendPasswordSetupEmail(_ context.Context, email, _, token string) error {
	return m.record("password_setup", email, token)
}

func (m *stubMailer) SendTechnicianDailySummary(_ context.Context, technicianEmail, _ string, _, _ int) error {
	return m.record("daily_summary", technicianEmail, "")
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type orgFixture struct {
	service     *OrgService
	areas       *stubAreaRepo
	categories  *stubCategoryRepo
	technicians *stubTechnicianRepo
	assignments *stubAssignmentRepo
	mailer      *stubMailer
}

func newOrgFixture() *orgFixture {
	areas := newStubAreaRepo()
	categories := newStubCategoryRepo()
	technicians := newStubTechnicianRepo()
	assignments := newStubAssignmentRepo()
	mailer := &stubMailer{}

	svc := NewOrgService(OrgDependencies{
		AreaRepo:       areas,
		CategoryRepo:   categories,
		TechnicianRepo: technicians,
		AssignmentRepo: assignments,
		Mailer:         mailer,
		Logger:         zap.NewNop(),
		SetupTokenTTL:  24 * time.Hour,
	})
	return &orgFixture{
		service:     svc,
		areas:       areas,
		categories:  categories,
		technicians: technicians,
		assignments: assignments,
		mailer:      mailer,
	}
}

// ── Areas ────────────────────────────────────────────────────────────────────

func TestCreateAreaAdminOnly(t *testing.T) {
	f := newOrgFixture()
	technician := f.technicians.add("t1", nil, nil)

	_, err := f.service.CreateArea(context.Background(), technicianActor(technician), AreaInput{Name: "Redes"})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	area, err := f.service.CreateArea(context.Background(), adminActor(), AreaInput{Name: "Redes"})
	require.NoError(t, err)
	assert.Equal(t, "Redes", area.Name)
}

func TestCreateAreaRejectsDuplicateName(t *testing.T) {
	f := newOrgFixture()
	f.areas.add(&domain.Area{ID: "a1", Name: "Redes"})

	_, err := f.service.CreateArea(context.Background(), adminActor(), AreaInput{Name: "Redes"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestDeleteAreaBlockedWhileInUse(t *testing.T) {
	f := newOrgFixture()
	area := f.areas.add(&domain.Area{ID: "a1", Name: "Redes"})
	f.technicians.add("t1", nil, &area.ID)

	err := f.service.DeleteArea(context.Background(), adminActor(), area.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	empty := f.areas.add(&domain.Area{ID: "a2", Name: "Soporte"})
	require.NoError(t, f.service.DeleteArea(context.Background(), adminActor(), empty.ID))
}

func TestSetChiefRejectsTechnicianLeadingAnotherArea(t *testing.T) {
	f := newOrgFixture()
	technician := f.technicians.add("t1", nil, nil)
	f.areas.add(&domain.Area{ID: "a1", Name: "Redes", ChiefID: &technician.ID})
	other := f.areas.add(&domain.Area{ID: "a2", Name: "Soporte"})

	_, err := f.service.SetChief(context.Background(), adminActor(), other.ID, technician.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestUpdateAreaChiefCannotReassignLeadership(t *testing.T) {
	f := newOrgFixture()
	chief := f.technicians.add("chief", nil, nil)
	area := f.areas.add(&domain.Area{ID: "a1", Name: "Redes", ChiefID: &chief.ID})
	usurper := f.technicians.add("t2", nil, nil)

	_, err := f.service.UpdateArea(context.Background(), chiefActor(chief, area.ID), area.ID, AreaInput{
		Name:    "Redes y Telefonía",
		ChiefID: &usurper.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	updated, err := f.service.UpdateArea(context.Background(), chiefActor(chief, area.ID), area.ID, AreaInput{
		Name:    "Redes y Telefonía",
		ChiefID: &chief.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Redes y Telefonía", updated.Name)
}

// ── Categories ───────────────────────────────────────────────────────────────

func TestCreateCategoryScope(t *testing.T) {
	f := newOrgFixture()
	chief := f.technicians.add("chief", nil, nil)
	own := f.areas.add(&domain.Area{ID: "a1", Name: "Redes", ChiefID: &chief.ID})
	foreign := f.areas.add(&domain.Area{ID: "a2", Name: "Soporte"})

	_, err := f.service.CreateCategory(context.Background(), chiefActor(chief, own.ID), CategoryInput{
		Name:   "VPN",
		Active: true,
		AreaID: &foreign.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	category, err := f.service.CreateCategory(context.Background(), chiefActor(chief, own.ID), CategoryInput{
		Name:   "VPN",
		Active: true,
		AreaID: &own.ID,
	})
	require.NoError(t, err)
	assert.True(t, category.Active)
}

func TestCreateCategoryWithoutAreaIsAdminOnly(t *testing.T) {
	f := newOrgFixture()
	chief := f.technicians.add("chief", nil, nil)
	area := f.areas.add(&domain.Area{ID: "a1", Name: "Redes", ChiefID: &chief.ID})

	_, err := f.service.CreateCategory(context.Background(), chiefActor(chief, area.ID), CategoryInput{
		Name:   "Otros",
		Active: true,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	_, err = f.service.CreateCategory(context.Background(), adminActor(), CategoryInput{
		Name:   "Otros",
		Active: true,
	})
	assert.NoError(t, err)
}

// ── Technicians ──────────────────────────────────────────────────────────────

func TestCreateTechnicianSendsSetupToken(t *testing.T) {
	f := newOrgFixture()

	technician, err := f.service.CreateTechnician(context.Background(), adminActor(), TechnicianInput{
		DNI:   "30111222",
		Name:  "Ana Gómez",
		Email: "agomez@example.edu.ar",
	})
	require.NoError(t, err)
	require.NotNil(t, technician.ResetToken)
	require.NotNil(t, technician.TokenExpiresAt)
	assert.True(t, technician.TokenExpiresAt.After(time.Now()))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "password_setup", f.mailer.sent[0].kind)
	assert.Equal(t, "agomez@example.edu.ar", f.mailer.sent[0].to)
	assert.Equal(t, *technician.ResetToken, f.mailer.sent[0].token)
}

func TestCreateTechnicianSurvivesMailerOutage(t *testing.T) {
	f := newOrgFixture()
	f.mailer.failAll = true

	technician, err := f.service.CreateTechnician(context.Background(), adminActor(), TechnicianInput{
		DNI:   "30111222",
		Name:  "Ana Gómez",
		Email: "agomez@example.edu.ar",
	})
	require.NoError(t, err)
	assert.NotNil(t, technician.ResetToken)
}

func TestCreateTechnicianRejectsDuplicateDNI(t *testing.T) {
	f := newOrgFixture()
	existing := f.technicians.add("t1", nil, nil)
	existing.DNI = "30111222"

	_, err := f.service.CreateTechnician(context.Background(), adminActor(), TechnicianInput{
		DNI:   "30111222",
		Name:  "Ana Gómez",
		Email: "otra@example.edu.ar",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestDeleteTechnicianBlockedWhileLeadingArea(t *testing.T) {
	f := newOrgFixture()
	chief := f.technicians.add("chief", nil, nil)
	f.areas.add(&domain.Area{ID: "a1", Name: "Redes", ChiefID: &chief.ID})

	err := f.service.DeleteTechnician(context.Background(), adminActor(), chief.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

// ── Category assignments ─────────────────────────────────────────────────────

func TestAssignCategoryRejectsDuplicates(t *testing.T) {
	f := newOrgFixture()
	areaX := "area-x"
	f.areas.add(&domain.Area{ID: areaX, Name: "Redes"})
	technician := f.technicians.add("t1", nil, &areaX)
	category := f.categories.add(&domain.TicketCategory{ID: "c1", Name: "VPN", Active: true, AreaID: &areaX})

	assignment, err := f.service.AssignCategory(context.Background(), adminActor(), technician.ID, category.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)

	_, err = f.service.AssignCategory(context.Background(), adminActor(), technician.ID, category.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestRevokeCategoryMissingGrant(t *testing.T) {
	f := newOrgFixture()
	areaX := "area-x"
	technician := f.technicians.add("t1", nil, &areaX)
	category := f.categories.add(&domain.TicketCategory{ID: "c1", Name: "VPN", Active: true, AreaID: &areaX})

	err := f.service.RevokeCategory(context.Background(), adminActor(), technician.ID, category.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
