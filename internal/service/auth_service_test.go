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
	"golang.org/x/crypto/bcrypt"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/auth"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
	apperrors "github.com/Ignatius32/asistencia-informatica-crub/pkg/util"
)

// ── In-memory UserRepository stub ────────────────────────────────────────────

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByDNI(_ context.Context, dni string) (*domain.User, error) {
	for _, user := range r.users {
		if user.DNI == dni {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	for _, user := range r.users {
		if user.ResetToken != nil && *user.ResetToken == token {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListDepartments(_ context.Context) ([]string, error) {
	var result []string
	seen := map[string]bool{}
	for _, user := range r.users {
		if user.Department != nil && !seen[*user.Department] {
			seen[*user.Department] = true
			result = append(result, *user.Department)
		}
	}
	return result, nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type authFixture struct {
	service     *AuthService
	users       *stubUserRepo
	technicians *stubTechnicianRepo
	mailer      *stubMailer
}

func newAuthFixture() *authFixture {
	users := newStubUserRepo()
	technicians := newStubTechnicianRepo()
	mailer := &stubMailer{}

	svc := NewAuthService(AuthDependencies{
		UserRepo:       users,
		TechnicianRepo: technicians,
		TokenManager:   auth.NewTokenManager("test-secret", 60),
		Mailer:         mailer,
		Logger:         zap.NewNop(),
		BcryptCost:     bcrypt.MinCost,
		SetupTokenTTL:  24 * time.Hour,
	})
	return &authFixture{service: svc, users: users, technicians: technicians, mailer: mailer}
}

func (f *authFixture) seedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		DNI:          "20333444",
		FirstName:    "Juan",
		LastName:     "Pérez",
		Email:        email,
		Role:         domain.UserRoleUser,
		PasswordHash: &hash,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

// ── Registration ─────────────────────────────────────────────────────────────

func TestRegisterUserNormalizesEmailAndSendsToken(t *testing.T) {
	f := newAuthFixture()

	user, err := f.service.RegisterUser(context.Background(), UserRegisterInput{
		DNI:       "20333444",
		FirstName: "Juan",
		LastName:  "Pérez",
		Email:     "  JPerez@Example.edu.ar ",
	})
	require.NoError(t, err)
	assert.Equal(t, "jperez@example.edu.ar", user.Email)
	require.NotNil(t, user.ResetToken)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "password_setup", f.mailer.sent[0].kind)
	assert.Equal(t, *user.ResetToken, f.mailer.sent[0].token)
}

func TestRegisterUserRejectsDuplicateDNI(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "jperez@example.edu.ar", "hunter22")

	_, err := f.service.RegisterUser(context.Background(), UserRegisterInput{
		DNI:       "20333444",
		FirstName: "Otro",
		LastName:  "Usuario",
		Email:     "otro@example.edu.ar",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestLoginUserSuccess(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "jperez@example.edu.ar", "hunter22")

	result, user, err := f.service.LoginUser(context.Background(), "JPerez@example.edu.ar", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
}

func TestLoginUserBadCredentials(t *testing.T) {
	f := newAuthFixture()
	f.seedUser(t, "jperez@example.edu.ar", "hunter22")

	_, _, err := f.service.LoginUser(context.Background(), "jperez@example.edu.ar", "wrong")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	_, _, err = f.service.LoginUser(context.Background(), "nobody@example.edu.ar", "hunter22")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestLoginUserWithoutPasswordSetRejected(t *testing.T) {
	f := newAuthFixture()
	user := &domain.User{DNI: "1", FirstName: "a", LastName: "b", Email: "pending@example.edu.ar"}
	require.NoError(t, f.users.Create(context.Background(), user))

	_, _, err := f.service.LoginUser(context.Background(), "pending@example.edu.ar", "anything")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

// ── Password reset flow ──────────────────────────────────────────────────────

func TestRequestPasswordResetUnknownAddressSucceedsSilently(t *testing.T) {
	f := newAuthFixture()

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "ghost@example.edu.ar"))
	assert.Empty(t, f.mailer.sent)
}

func TestSetPasswordConsumesToken(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "jperez@example.edu.ar", "hunter22")

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), user.Email))
	require.Len(t, f.mailer.sent, 1)
	token := f.mailer.sent[0].token

	require.NoError(t, f.service.SetPassword(context.Background(), token, "nuevaclave9"))

	_, _, err := f.service.LoginUser(context.Background(), user.Email, "nuevaclave9")
	require.NoError(t, err)

	// The token was cleared and cannot be replayed.
	err = f.service.SetPassword(context.Background(), token, "otraclave10")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestSetPasswordRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "jperez@example.edu.ar", "hunter22")
	token := "expired-token"
	past := time.Now().Add(-time.Hour)
	user.ResetToken = &token
	user.TokenExpiresAt = &past

	err := f.service.SetPassword(context.Background(), token, "nuevaclave9")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestSetPasswordRejectsShortPassword(t *testing.T) {
	f := newAuthFixture()

	err := f.service.SetPassword(context.Background(), "whatever", "corta")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSetPasswordForTechnician(t *testing.T) {
	f := newAuthFixture()
	technician := f.technicians.add("t1", nil, nil)
	technician.Email = "tecnico@example.edu.ar"
	token := "setup-token"
	future := time.Now().Add(time.Hour)
	technician.ResetToken = &token
	technician.TokenExpiresAt = &future

	require.NoError(t, f.service.SetPassword(context.Background(), token, "clavetecnica1"))

	result, logged, err := f.service.LoginTechnician(context.Background(), technician.Email, "clavetecnica1")
	require.NoError(t, err)
	assert.Equal(t, technician.ID, logged.ID)
	assert.NotEmpty(t, result.Token)
}

// ── Change password ──────────────────────────────────────────────────────────

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	f := newAuthFixture()
	user := f.seedUser(t, "jperez@example.edu.ar", "hunter22")
	actor := &domain.Actor{Subject: domain.SubjectTypeUser, User: user}

	err := f.service.ChangePassword(context.Background(), actor, "wrong", "nuevaclave9")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	require.NoError(t, f.service.ChangePassword(context.Background(), actor, "hunter22", "nuevaclave9"))
	_, _, err = f.service.LoginUser(context.Background(), user.Email, "nuevaclave9")
	require.NoError(t, err)
}
