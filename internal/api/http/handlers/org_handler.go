package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/api/dto"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/auth"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/service"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// OrgHandler exposes the organizational model: areas, categories,
// technicians and explicit category assignments.
type OrgHandler struct {
	service *service.OrgService
}

// NewOrgHandler constructs handler.
func NewOrgHandler(orgService *service.OrgService) *OrgHandler {
	return &OrgHandler{service: orgService}
}

// CreateArea POST /org/areas.
func (h *OrgHandler) CreateArea(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AreaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	area, err := h.service.CreateArea(c.UserContext(), actor, service.AreaInput{Name: req.Name, ChiefID: req.ChiefID})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": areaResponse(area)})
}

// UpdateArea PUT /org/areas/:id.
func (h *OrgHandler) UpdateArea(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AreaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	area, err := h.service.UpdateArea(c.UserContext(), actor, c.Params("id"), service.AreaInput{Name: req.Name, ChiefID: req.ChiefID})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": areaResponse(area)})
}

// SetChief PUT /org/areas/:id/chief.
func (h *OrgHandler) SetChief(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetChiefRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	area, err := h.service.SetChief(c.UserContext(), actor, c.Params("id"), req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": areaResponse(area)})
}

// DeleteArea DELETE /org/areas/:id.
func (h *OrgHandler) DeleteArea(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteArea(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListAreas GET /org/areas.
func (h *OrgHandler) ListAreas(c *fiber.Ctx) error {
	areas, err := h.service.ListAreas(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AreaResponse, 0, len(areas))
	for i := range areas {
		items = append(items, areaResponse(&areas[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAreaCategories GET /org/areas/:id/categories.
func (h *OrgHandler) ListAreaCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListAreaCategories(c.UserContext(), c.Params("id"), c.QueryBool("active_only"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponses(categories)})
}

// CreateCategory POST /org/categories.
func (h *OrgHandler) CreateCategory(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	category, err := h.service.CreateCategory(c.UserContext(), actor, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Profile:     req.Profile,
		Active:      active,
		AreaID:      req.AreaID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CategoryResponseFrom(category)})
}

// UpdateCategory PUT /org/categories/:id.
func (h *OrgHandler) UpdateCategory(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	category, err := h.service.UpdateCategory(c.UserContext(), actor, c.Params("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Profile:     req.Profile,
		Active:      active,
		AreaID:      req.AreaID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CategoryResponseFrom(category)})
}

// SetCategoryActive PATCH /org/categories/:id/active.
func (h *OrgHandler) SetCategoryActive(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.SetCategoryActive(c.UserContext(), actor, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CategoryResponseFrom(category)})
}

// ListCategories GET /org/categories.
func (h *OrgHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext(), c.QueryBool("active_only"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponses(categories)})
}

// CreateTechnician POST /org/technicians.
func (h *OrgHandler) CreateTechnician(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.service.CreateTechnician(c.UserContext(), actor, service.TechnicianInput{
		DNI:     req.DNI,
		Name:    req.Name,
		Email:   req.Email,
		Profile: req.Profile,
		AreaID:  req.AreaID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": technicianResponse(technician)})
}

// UpdateTechnician PUT /org/technicians/:id.
func (h *OrgHandler) UpdateTechnician(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.service.UpdateTechnician(c.UserContext(), actor, c.Params("id"), service.TechnicianInput{
		DNI:     req.DNI,
		Name:    req.Name,
		Email:   req.Email,
		Profile: req.Profile,
		AreaID:  req.AreaID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(technician)})
}

// DeleteTechnician DELETE /org/technicians/:id.
func (h *OrgHandler) DeleteTechnician(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteTechnician(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListTechnicians GET /org/technicians.
func (h *OrgHandler) ListTechnicians(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	technicians, err := h.service.ListTechnicians(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianResponse, 0, len(technicians))
	for i := range technicians {
		items = append(items, technicianResponse(&technicians[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateAssignment POST /org/assignments.
func (h *OrgHandler) CreateAssignment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" || req.CategoryID == "" {
		return apperrors.NewValidationError("technician_id and category_id required", nil)
	}
	assignment, err := h.service.AssignCategory(c.UserContext(), actor, req.TechnicianID, req.CategoryID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AssignmentResponse{
		ID:           assignment.ID,
		TechnicianID: assignment.TechnicianID,
		CategoryID:   assignment.CategoryID,
		AssignedAt:   assignment.AssignedAt,
	}})
}

// DeleteAssignment DELETE /org/assignments.
func (h *OrgHandler) DeleteAssignment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" || req.CategoryID == "" {
		return apperrors.NewValidationError("technician_id and category_id required", nil)
	}
	if err := h.service.RevokeCategory(c.UserContext(), actor, req.TechnicianID, req.CategoryID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListTechnicianAssignments GET /org/technicians/:id/assignments.
func (h *OrgHandler) ListTechnicianAssignments(c *fiber.Ctx) error {
	assignments, err := h.service.ListTechnicianAssignments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		items = append(items, dto.AssignmentResponse{
			ID:           assignment.ID,
			TechnicianID: assignment.TechnicianID,
			CategoryID:   assignment.CategoryID,
			AssignedAt:   assignment.AssignedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func areaResponse(area *domain.Area) dto.AreaResponse {
	return dto.AreaResponse{ID: area.ID, Name: area.Name, ChiefID: area.ChiefID}
}

func categoryResponses(categories []domain.TicketCategory) []dto.CategoryResponse {
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, dto.CategoryResponseFrom(&categories[i]))
	}
	return items
}
