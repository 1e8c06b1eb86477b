package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/auth"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/mailer"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// AuthService handles account registration, onboarding tokens, login and
// password management for users and technicians.
type AuthService struct {
	users       repository.UserRepository
	technicians repository.TechnicianRepository
	tokens      *auth.TokenManager
	mailer      mailer.Mailer
	logger      *zap.Logger
	bcryptCost  int
	setupTTL    time.Duration
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	TechnicianRepo repository.TechnicianRepository
	TokenManager   *auth.TokenManager
	Mailer         mailer.Mailer
	Logger         *zap.Logger
	BcryptCost     int
	SetupTokenTTL  time.Duration
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	ttl := deps.SetupTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:       deps.UserRepo,
		technicians: deps.TechnicianRepo,
		tokens:      deps.TokenManager,
		mailer:      deps.Mailer,
		logger:      deps.Logger,
		bcryptCost:  deps.BcryptCost,
		setupTTL:    ttl,
	}
}

// UserRegisterInput describes the self-registration payload.
type UserRegisterInput struct {
	DNI        string
	FirstName  string
	LastName   string
	Email      string
	Department *string
}

// LoginResult carries an issued bearer token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterUser creates a requester account without a password and emails a
// one-time setup token.
func (s *AuthService) RegisterUser(ctx context.Context, input UserRegisterInput) (*domain.User, error) {
	dni := strings.TrimSpace(input.DNI)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if dni == "" || email == "" || firstName == "" || lastName == "" {
		return nil, apperrors.NewValidationError("dni, name and email are required", nil)
	}

	if existing, err := s.users.GetByDNI(ctx, dni); err == nil && existing != nil {
		return nil, apperrors.NewConflict("DNI already registered", map[string]any{"dni": dni})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.setupTTL)
	user := &domain.User{
		DNI:            dni,
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		Department:     input.Department,
		Role:           domain.UserRoleUser,
		ResetToken:     &token,
		TokenExpiresAt: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordSetupEmail(ctx, user.Email, user.FullName(), token); err != nil {
		s.logger.Warn("password setup email failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}
	return user, nil
}

// LoginUser authenticates a requester by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*LoginResult, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if user.PasswordHash == nil || auth.ComparePassword(*user.PasswordHash, password) != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	role := user.Role
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser, &role)
	if err != nil {
		return nil, nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, user, nil
}

// LoginTechnician authenticates a technician by email and password.
func (s *AuthService) LoginTechnician(ctx context.Context, email, password string) (*LoginResult, *domain.Technician, error) {
	technician, err := s.technicians.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if technician.PasswordHash == nil || auth.ComparePassword(*technician.PasswordHash, password) != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(technician.ID, domain.SubjectTypeTechnician, nil)
	if err != nil {
		return nil, nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, technician, nil
}

// RequestPasswordReset issues a fresh one-time token and emails it. The
// response never reveals whether the address exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	token := uuid.NewString()
	expires := time.Now().Add(s.setupTTL)

	if user, err := s.users.GetByEmail(ctx, email); err == nil {
		user.ResetToken = &token
		user.TokenExpiresAt = &expires
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		s.sendSetupMail(ctx, user.Email, user.FullName(), token)
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if technician, err := s.technicians.GetByEmail(ctx, email); err == nil {
		technician.ResetToken = &token
		technician.TokenExpiresAt = &expires
		if err := s.technicians.Update(ctx, technician); err != nil {
			return err
		}
		s.sendSetupMail(ctx, technician.Email, technician.Name, token)
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// Unknown address: succeed silently.
	return nil
}

// SetPassword consumes a one-time token and stores the new password hash.
// The token is cleared on success and cannot be replayed.
func (s *AuthService) SetPassword(ctx context.Context, token, password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	now := time.Now()

	if user, err := s.users.GetByResetToken(ctx, token); err == nil {
		if !user.ResetTokenValid(token, now) {
			return apperrors.NewUnauthorized("token expired")
		}
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return err
		}
		user.PasswordHash = &hash
		user.ResetToken = nil
		user.TokenExpiresAt = nil
		return s.users.Update(ctx, user)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if technician, err := s.technicians.GetByResetToken(ctx, token); err == nil {
		if !technician.ResetTokenValid(token, now) {
			return apperrors.NewUnauthorized("token expired")
		}
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return err
		}
		technician.PasswordHash = &hash
		technician.ResetToken = nil
		technician.TokenExpiresAt = nil
		return s.technicians.Update(ctx, technician)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	return apperrors.NewUnauthorized("invalid token")
}

// ChangePassword verifies the current password before storing a new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Actor, current, next string) error {
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}

	switch {
	case actor.User != nil:
		if actor.User.PasswordHash == nil || auth.ComparePassword(*actor.User.PasswordHash, current) != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		actor.User.PasswordHash = &hash
		return s.users.Update(ctx, actor.User)
	case actor.Technician != nil:
		if actor.Technician.PasswordHash == nil || auth.ComparePassword(*actor.Technician.PasswordHash, current) != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		actor.Technician.PasswordHash = &hash
		return s.technicians.Update(ctx, actor.Technician)
	}
	return apperrors.NewUnauthorized("unknown subject")
}

func (s *AuthService) sendSetupMail(ctx context.Context, email, name, token string) {
	if err := s.mailer.SendPasswordSetupEmail(ctx, email, name, token); err != nil {
		s.logger.Warn("password setup email failed", zap.String("email", email), zap.Error(err))
	}
}
