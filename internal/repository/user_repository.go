package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// UserRepository defines persistence access for requester accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByDNI(ctx context.Context, dni string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	ListDepartments(ctx context.Context) ([]string, error)
}

const userColumns = `id, dni, first_name, last_name, email, department, role,
               password_hash, password_reset_token, token_expires_at, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (dni, first_name, last_name, email, department, role, password_hash, password_reset_token, token_expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.DNI,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Department,
		user.Role,
		user.PasswordHash,
		user.ResetToken,
		user.TokenExpiresAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET dni=$1, first_name=$2, last_name=$3, email=$4, department=$5, role=$6,
            password_hash=$7, password_reset_token=$8, token_expires_at=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		user.DNI,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Department,
		user.Role,
		user.PasswordHash,
		user.ResetToken,
		user.TokenExpiresAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) GetByDNI(ctx context.Context, dni string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE dni=$1`, dni)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE password_reset_token=$1`, token)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.DNI,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Department,
		&user.Role,
		&user.PasswordHash,
		&user.ResetToken,
		&user.TokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT department FROM users WHERE department IS NOT NULL ORDER BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var department string
		if err := rows.Scan(&department); err != nil {
			return nil, err
		}
		result = append(result, department)
	}
	return result, rows.Err()
}
