package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// CategoryRepository manages persistence for ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.TicketCategory) error
	Update(ctx context.Context, category *domain.TicketCategory) error
	GetByID(ctx context.Context, id string) (*domain.TicketCategory, error)
	GetByName(ctx context.Context, name string) (*domain.TicketCategory, error)
	ListByArea(ctx context.Context, areaID string, activeOnly bool) ([]domain.TicketCategory, error)
	List(ctx context.Context, activeOnly bool) ([]domain.TicketCategory, error)
	CountByArea(ctx context.Context, areaID string) (int, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.TicketCategory) error {
	const query = `
        INSERT INTO ticket_categories (name, description, technical_profile, active, area_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.Profile,
		category.Active,
		category.AreaID,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.TicketCategory) error {
	const query = `
        UPDATE ticket_categories
        SET name=$1, description=$2, technical_profile=$3, active=$4, area_id=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		category.Name,
		category.Description,
		category.Profile,
		category.Active,
		category.AreaID,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, technical_profile, active, area_id, created_at, updated_at
        FROM ticket_categories WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, technical_profile, active, area_id, created_at, updated_at
        FROM ticket_categories WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *categoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.TicketCategory, error) {
	var category domain.TicketCategory
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Profile,
		&category.Active,
		&category.AreaID,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByArea(ctx context.Context, areaID string, activeOnly bool) ([]domain.TicketCategory, error) {
	query := `
        SELECT id, name, description, technical_profile, active, area_id, created_at, updated_at
        FROM ticket_categories WHERE area_id=$1`
	if activeOnly {
		query += ` AND active=TRUE`
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.TicketCategory, error) {
	query := `
        SELECT id, name, description, technical_profile, active, area_id, created_at, updated_at
        FROM ticket_categories`
	if activeOnly {
		query += ` WHERE active=TRUE`
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *categoryRepository) CountByArea(ctx context.Context, areaID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_categories WHERE area_id=$1`, areaID).Scan(&count)
	return count, err
}

func scanCategories(rows pgx.Rows) ([]domain.TicketCategory, error) {
	var result []domain.TicketCategory
	for rows.Next() {
		var category domain.TicketCategory
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.Profile,
			&category.Active,
			&category.AreaID,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
