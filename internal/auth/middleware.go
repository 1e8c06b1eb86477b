package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

const actorKey = "auth_actor"

// AuthMiddleware validates bearer tokens and loads the acting principal.
type AuthMiddleware struct {
	tokens      *TokenManager
	users       repository.UserRepository
	technicians repository.TechnicianRepository
	areas       repository.AreaRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, technicians repository.TechnicianRepository, areas repository.AreaRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, technicians: technicians, areas: areas}
}

// Handle enforces authentication for protected routes. Technician actors
// also carry the area they lead (if any), so authorization checks never
// read ambient state.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor := &domain.Actor{Subject: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeUser:
		user, err := m.users.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("user not found")
			}
			return apperrors.MapError(err)
		}
		actor.User = user
	case domain.SubjectTypeTechnician:
		technician, err := m.technicians.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("technician not found")
			}
			return apperrors.MapError(err)
		}
		actor.Technician = technician
		if area, err := m.areas.GetByChief(c.Context(), technician.ID); err == nil {
			actor.ManagedAreaID = &area.ID
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromContext retrieves the authenticated principal.
func ActorFromContext(c *fiber.Ctx) (*domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	actor, ok := val.(*domain.Actor)
	return actor, ok
}
