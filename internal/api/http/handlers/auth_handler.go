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

// AuthHandler exposes registration, login and password endpoints for both
// requesters and technicians.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/users/register. The account starts without a
// password; a setup token is emailed.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.RegisterUser(c.UserContext(), service.UserRegisterInput{
		DNI:        req.DNI,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// LoginUser handles POST /auth/users/login.
func (h *AuthHandler) LoginUser(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, user, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user": userResponse(user),
		"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}})
}

// LoginTechnician handles POST /auth/technicians/login.
func (h *AuthHandler) LoginTechnician(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, technician, err := h.auth.LoginTechnician(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"technician": technicianResponse(technician),
		"auth":       dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The
// response is the same whether or not the address exists.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "sent"}})
}

// SetPassword handles POST /auth/password/set, consuming a one-time token.
func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.PasswordSetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.Password == "" {
		return apperrors.NewValidationError("token and password required", nil)
	}
	if err := h.auth.SetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password set"}})
}

// ChangePassword handles POST /auth/password/change for authenticated
// principals.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password changed"}})
}

// Me handles GET /auth/me and echoes the authenticated principal.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	data := fiber.Map{"subject": actor.Subject}
	if actor.User != nil {
		data["user"] = userResponse(actor.User)
	}
	if actor.Technician != nil {
		data["technician"] = technicianResponse(actor.Technician)
		if actor.ManagedAreaID != nil {
			data["managed_area_id"] = *actor.ManagedAreaID
		}
	}
	return c.JSON(fiber.Map{"data": data})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		DNI:        user.DNI,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Department: user.Department,
		Role:       string(user.Role),
	}
}

func technicianResponse(technician *domain.Technician) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:      technician.ID,
		DNI:     technician.DNI,
		Name:    technician.Name,
		Email:   technician.Email,
		Profile: technician.Profile,
		AreaID:  technician.AreaID,
	}
}
