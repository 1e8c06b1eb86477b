package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/mailer"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// OrgService manages the organizational model behind distribution: areas,
// ticket categories, technicians and explicit category assignments. Every
// operation is guarded by the acting principal.
type OrgService struct {
	areas       repository.AreaRepository
	categories  repository.CategoryRepository
	technicians repository.TechnicianRepository
	assignments repository.AssignmentRepository
	mailer      mailer.Mailer
	catalog     *CatalogService
	logger      *zap.Logger
	setupTTL    time.Duration
}

// OrgDependencies bundles collaborators for the org service.
type OrgDependencies struct {
	AreaRepo       repository.AreaRepository
	CategoryRepo   repository.CategoryRepository
	TechnicianRepo repository.TechnicianRepository
	AssignmentRepo repository.AssignmentRepository
	Mailer         mailer.Mailer
	Catalog        *CatalogService
	Logger         *zap.Logger
	SetupTokenTTL  time.Duration
}

// NewOrgService constructs the service.
func NewOrgService(deps OrgDependencies) *OrgService {
	ttl := deps.SetupTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OrgService{
		areas:       deps.AreaRepo,
		categories:  deps.CategoryRepo,
		technicians: deps.TechnicianRepo,
		assignments: deps.AssignmentRepo,
		mailer:      deps.Mailer,
		catalog:     deps.Catalog,
		logger:      deps.Logger,
		setupTTL:    ttl,
	}
}

// AreaInput describes area create/update payloads.
type AreaInput struct {
	Name    string
	ChiefID *string
}

// CategoryInput describes category create/update payloads.
type CategoryInput struct {
	Name        string
	Description string
	Profile     *string
	Active      bool
	AreaID      *string
}

// TechnicianInput describes technician create/update payloads.
type TechnicianInput struct {
	DNI     string
	Name    string
	Email   string
	Profile *string
	AreaID  *string
}

// CreateArea registers a new area. Admin only.
func (s *OrgService) CreateArea(ctx context.Context, actor *domain.Actor, input AreaInput) (*domain.Area, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("area name is required", nil)
	}
	if existing, err := s.areas.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("area name already in use", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if input.ChiefID != nil {
		if err := s.validateChief(ctx, *input.ChiefID); err != nil {
			return nil, err
		}
	}

	area := &domain.Area{Name: name, ChiefID: input.ChiefID}
	if err := s.areas.Create(ctx, area); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return area, nil
}

// UpdateArea renames an area or changes its chief. Admin, or the chief of
// this very area (who may not reassign leadership).
func (s *OrgService) UpdateArea(ctx context.Context, actor *domain.Actor, areaID string, input AreaInput) (*domain.Area, error) {
	area, err := s.getArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if !actor.ChiefOf(area.ID) {
			return nil, apperrors.NewForbidden("admin or area chief required")
		}
		if !sameOptional(area.ChiefID, input.ChiefID) {
			return nil, apperrors.NewForbidden("only admins reassign area leadership")
		}
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("area name is required", nil)
	}
	if input.ChiefID != nil && !sameOptional(area.ChiefID, input.ChiefID) {
		if err := s.validateChief(ctx, *input.ChiefID); err != nil {
			return nil, err
		}
	}

	area.Name = name
	area.ChiefID = input.ChiefID
	if err := s.areas.Update(ctx, area); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return area, nil
}

// SetChief assigns area leadership to a technician. Admin only. A
// technician leads at most one area.
func (s *OrgService) SetChief(ctx context.Context, actor *domain.Actor, areaID, technicianID string) (*domain.Area, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	area, err := s.getArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if err := s.validateChief(ctx, technicianID); err != nil {
		return nil, err
	}
	if led, err := s.areas.GetByChief(ctx, technicianID); err == nil && led.ID != area.ID {
		return nil, apperrors.NewConflict("technician already leads another area", map[string]any{"area_id": led.ID})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	area.ChiefID = &technicianID
	if err := s.areas.Update(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

// DeleteArea removes an empty area. Deletion is blocked while technicians
// or categories are still attached. Admin only.
func (s *OrgService) DeleteArea(ctx context.Context, actor *domain.Actor, areaID string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	technicianCount, err := s.technicians.CountByArea(ctx, areaID)
	if err != nil {
		return err
	}
	categoryCount, err := s.categories.CountByArea(ctx, areaID)
	if err != nil {
		return err
	}
	if technicianCount > 0 || categoryCount > 0 {
		return apperrors.NewConflict("area still has technicians or categories attached", map[string]any{
			"technicians": technicianCount,
			"categories":  categoryCount,
		})
	}
	if err := s.areas.Delete(ctx, areaID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("area", nil)
		}
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// ListAreas returns all areas.
func (s *OrgService) ListAreas(ctx context.Context) ([]domain.Area, error) {
	return s.areas.List(ctx)
}

// GetArea fetches a single area.
func (s *OrgService) GetArea(ctx context.Context, areaID string) (*domain.Area, error) {
	return s.getArea(ctx, areaID)
}

// CreateCategory registers a ticket category. Admin, or a chief creating
// inside their own area.
func (s *OrgService) CreateCategory(ctx context.Context, actor *domain.Actor, input CategoryInput) (*domain.TicketCategory, error) {
	if err := s.requireAreaScope(actor, input.AreaID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", nil)
	}
	if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("category name already in use", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if input.AreaID != nil {
		if _, err := s.getArea(ctx, *input.AreaID); err != nil {
			return nil, err
		}
	}

	category := &domain.TicketCategory{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Profile:     normalizeProfile(input.Profile),
		Active:      input.Active,
		AreaID:      input.AreaID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return category, nil
}

// UpdateCategory edits a category, including relinking it to another area.
func (s *OrgService) UpdateCategory(ctx context.Context, actor *domain.Actor, categoryID string, input CategoryInput) (*domain.TicketCategory, error) {
	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAreaScope(actor, category.AreaID); err != nil {
		return nil, err
	}
	if !sameOptional(category.AreaID, input.AreaID) {
		// Relinking touches the target area too.
		if err := s.requireAreaScope(actor, input.AreaID); err != nil {
			return nil, err
		}
		if input.AreaID != nil {
			if _, err := s.getArea(ctx, *input.AreaID); err != nil {
				return nil, err
			}
		}
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", nil)
	}

	category.Name = name
	category.Description = strings.TrimSpace(input.Description)
	category.Profile = normalizeProfile(input.Profile)
	category.Active = input.Active
	category.AreaID = input.AreaID
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return category, nil
}

// SetCategoryActive toggles whether a category accepts new tickets.
func (s *OrgService) SetCategoryActive(ctx context.Context, actor *domain.Actor, categoryID string, active bool) (*domain.TicketCategory, error) {
	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAreaScope(actor, category.AreaID); err != nil {
		return nil, err
	}
	category.Active = active
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	return category, nil
}

// ListCategories returns categories, optionally restricted to active ones.
func (s *OrgService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.TicketCategory, error) {
	return s.categories.List(ctx, activeOnly)
}

// ListAreaCategories returns the categories of one area.
func (s *OrgService) ListAreaCategories(ctx context.Context, areaID string, activeOnly bool) ([]domain.TicketCategory, error) {
	return s.categories.ListByArea(ctx, areaID, activeOnly)
}

// CreateTechnician registers a technician without a password and emails a
// one-time setup token. Admin, or a chief hiring into their own area.
func (s *OrgService) CreateTechnician(ctx context.Context, actor *domain.Actor, input TechnicianInput) (*domain.Technician, error) {
	if err := s.requireAreaScope(actor, input.AreaID); err != nil {
		return nil, err
	}
	if err := validateTechnicianInput(input); err != nil {
		return nil, err
	}
	if existing, err := s.technicians.GetByDNI(ctx, input.DNI); err == nil && existing != nil {
		return nil, apperrors.NewConflict("DNI already registered", map[string]any{"dni": input.DNI})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing, err := s.technicians.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if input.AreaID != nil {
		if _, err := s.getArea(ctx, *input.AreaID); err != nil {
			return nil, err
		}
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.setupTTL)
	technician := &domain.Technician{
		DNI:            strings.TrimSpace(input.DNI),
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.TrimSpace(input.Email),
		Profile:        normalizeProfile(input.Profile),
		AreaID:         input.AreaID,
		ResetToken:     &token,
		TokenExpiresAt: &expires,
	}
	if err := s.technicians.Create(ctx, technician); err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordSetupEmail(ctx, technician.Email, technician.Name, token); err != nil {
		s.logger.Warn("password setup email failed",
			zap.String("technician_id", technician.ID),
			zap.Error(err))
	}
	return technician, nil
}

// UpdateTechnician edits a technician's record, including relinking area.
func (s *OrgService) UpdateTechnician(ctx context.Context, actor *domain.Actor, technicianID string, input TechnicianInput) (*domain.Technician, error) {
	technician, err := s.getTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAreaScope(actor, technician.AreaID); err != nil {
		return nil, err
	}
	if !sameOptional(technician.AreaID, input.AreaID) {
		if err := s.requireAreaScope(actor, input.AreaID); err != nil {
			return nil, err
		}
		if input.AreaID != nil {
			if _, err := s.getArea(ctx, *input.AreaID); err != nil {
				return nil, err
			}
		}
	}
	if err := validateTechnicianInput(input); err != nil {
		return nil, err
	}

	technician.DNI = strings.TrimSpace(input.DNI)
	technician.Name = strings.TrimSpace(input.Name)
	technician.Email = strings.TrimSpace(input.Email)
	technician.Profile = normalizeProfile(input.Profile)
	technician.AreaID = input.AreaID
	if err := s.technicians.Update(ctx, technician); err != nil {
		return nil, err
	}
	return technician, nil
}

// DeleteTechnician removes a technician. Admin only; blocked while they
// lead an area.
func (s *OrgService) DeleteTechnician(ctx context.Context, actor *domain.Actor, technicianID string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if led, err := s.areas.GetByChief(ctx, technicianID); err == nil {
		return apperrors.NewConflict("technician leads an area", map[string]any{"area_id": led.ID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err := s.technicians.Delete(ctx, technicianID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("technician", nil)
		}
		return err
	}
	return nil
}

// ListTechnicians returns all technicians; chiefs get their area only.
func (s *OrgService) ListTechnicians(ctx context.Context, actor *domain.Actor) ([]domain.Technician, error) {
	if actor.IsAdmin() {
		return s.technicians.List(ctx)
	}
	if actor.IsChief() {
		return s.technicians.ListByArea(ctx, *actor.ManagedAreaID)
	}
	return nil, apperrors.NewForbidden("admin or area chief required")
}

// AssignCategory grants a technician an explicit claim on a category.
// Duplicate grants are rejected.
func (s *OrgService) AssignCategory(ctx context.Context, actor *domain.Actor, technicianID, categoryID string) (*domain.TechnicianCategoryAssignment, error) {
	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAreaScope(actor, category.AreaID); err != nil {
		return nil, err
	}
	if _, err := s.getTechnician(ctx, technicianID); err != nil {
		return nil, err
	}
	exists, err := s.assignments.Exists(ctx, technicianID, categoryID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("assignment already exists", map[string]any{
			"technician_id": technicianID,
			"category_id":   categoryID,
		})
	}

	assignment := &domain.TechnicianCategoryAssignment{
		TechnicianID: technicianID,
		CategoryID:   categoryID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// RevokeCategory removes an explicit grant.
func (s *OrgService) RevokeCategory(ctx context.Context, actor *domain.Actor, technicianID, categoryID string) error {
	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if err := s.requireAreaScope(actor, category.AreaID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, technicianID, categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("assignment", nil)
		}
		return err
	}
	return nil
}

// ListTechnicianAssignments returns the grants held by one technician.
func (s *OrgService) ListTechnicianAssignments(ctx context.Context, technicianID string) ([]domain.TechnicianCategoryAssignment, error) {
	return s.assignments.ListByTechnician(ctx, technicianID)
}

// requireAreaScope allows admins everywhere and chiefs inside the area they
// lead. A nil area (unscoped resource) is admin territory.
func (s *OrgService) requireAreaScope(actor *domain.Actor, areaID *string) error {
	if actor.IsAdmin() {
		return nil
	}
	if areaID != nil && actor.ChiefOf(*areaID) {
		return nil
	}
	return apperrors.NewForbidden("admin or area chief required")
}

func (s *OrgService) getArea(ctx context.Context, areaID string) (*domain.Area, error) {
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("area", nil)
		}
		return nil, err
	}
	return area, nil
}

func (s *OrgService) getCategory(ctx context.Context, categoryID string) (*domain.TicketCategory, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", nil)
		}
		return nil, err
	}
	return category, nil
}

func (s *OrgService) getTechnician(ctx context.Context, technicianID string) (*domain.Technician, error) {
	technician, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", nil)
		}
		return nil, err
	}
	return technician, nil
}

func (s *OrgService) validateChief(ctx context.Context, technicianID string) error {
	_, err := s.getTechnician(ctx, technicianID)
	return err
}

func (s *OrgService) invalidateCatalog(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}

func validateTechnicianInput(input TechnicianInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.DNI) == "" {
		details["dni"] = "required"
	}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" {
		details["email"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("missing technician fields", details)
	}
	return nil
}

func normalizeProfile(profile *string) *string {
	if profile == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*profile)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
