package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// TechnicianRepository handles persistence for technicians, including the
// candidate lookups consumed by the distributor.
type TechnicianRepository interface {
	Create(ctx context.Context, technician *domain.Technician) error
	Update(ctx context.Context, technician *domain.Technician) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	GetByEmail(ctx context.Context, email string) (*domain.Technician, error)
	GetByDNI(ctx context.Context, dni string) (*domain.Technician, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Technician, error)
	ListByArea(ctx context.Context, areaID string) ([]domain.Technician, error)
	ListByProfile(ctx context.Context, profile string) ([]domain.Technician, error)
	ListByCategoryAssignment(ctx context.Context, categoryID string) ([]domain.Technician, error)
	List(ctx context.Context) ([]domain.Technician, error)
	CountByArea(ctx context.Context, areaID string) (int, error)
}

const technicianColumns = `id, dni, name, email, technical_profile, area_id,
               password_hash, password_reset_token, token_expires_at, created_at, updated_at`

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

func (r *technicianRepository) Create(ctx context.Context, technician *domain.Technician) error {
	const query = `
        INSERT INTO technicians (dni, name, email, technical_profile, area_id, password_hash, password_reset_token, token_expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		technician.DNI,
		technician.Name,
		technician.Email,
		technician.Profile,
		technician.AreaID,
		technician.PasswordHash,
		technician.ResetToken,
		technician.TokenExpiresAt,
	).Scan(&technician.ID, &technician.CreatedAt, &technician.UpdatedAt)
}

func (r *technicianRepository) Update(ctx context.Context, technician *domain.Technician) error {
	const query = `
        UPDATE technicians
        SET dni=$1, name=$2, email=$3, technical_profile=$4, area_id=$5,
            password_hash=$6, password_reset_token=$7, token_expires_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		technician.DNI,
		technician.Name,
		technician.Email,
		technician.Profile,
		technician.AreaID,
		technician.PasswordHash,
		technician.ResetToken,
		technician.TokenExpiresAt,
		technician.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM technicians WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	return r.fetchSingle(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id=$1`, id)
}

func (r *technicianRepository) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	return r.fetchSingle(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE email=$1`, email)
}

func (r *technicianRepository) GetByDNI(ctx context.Context, dni string) (*domain.Technician, error) {
	return r.fetchSingle(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE dni=$1`, dni)
}

func (r *technicianRepository) GetByResetToken(ctx context.Context, token string) (*domain.Technician, error) {
	return r.fetchSingle(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE password_reset_token=$1`, token)
}

func (r *technicianRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Technician, error) {
	var technician domain.Technician
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&technician.ID,
		&technician.DNI,
		&technician.Name,
		&technician.Email,
		&technician.Profile,
		&technician.AreaID,
		&technician.PasswordHash,
		&technician.ResetToken,
		&technician.TokenExpiresAt,
		&technician.CreatedAt,
		&technician.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *technicianRepository) ListByArea(ctx context.Context, areaID string) ([]domain.Technician, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE area_id=$1 ORDER BY name`, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) ListByProfile(ctx context.Context, profile string) ([]domain.Technician, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE technical_profile=$1 ORDER BY name`, profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) ListByCategoryAssignment(ctx context.Context, categoryID string) ([]domain.Technician, error) {
	const query = `
        SELECT t.id, t.dni, t.name, t.email, t.technical_profile, t.area_id,
               t.password_hash, t.password_reset_token, t.token_expires_at, t.created_at, t.updated_at
        FROM technicians t
        JOIN technician_category_assignments a ON a.technician_id = t.id
        WHERE a.category_id=$1
        ORDER BY t.name`
	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) CountByArea(ctx context.Context, areaID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM technicians WHERE area_id=$1`, areaID).Scan(&count)
	return count, err
}

func scanTechnicians(rows pgx.Rows) ([]domain.Technician, error) {
	var result []domain.Technician
	for rows.Next() {
		var technician domain.Technician
		if err := rows.Scan(
			&technician.ID,
			&technician.DNI,
			&technician.Name,
			&technician.Email,
			&technician.Profile,
			&technician.AreaID,
			&technician.PasswordHash,
			&technician.ResetToken,
			&technician.TokenExpiresAt,
			&technician.CreatedAt,
			&technician.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, technician)
	}
	return result, rows.Err()
}
