package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
)

// AssignmentRepository manages explicit technician-to-category grants.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.TechnicianCategoryAssignment) error
	Delete(ctx context.Context, technicianID, categoryID string) error
	Exists(ctx context.Context, technicianID, categoryID string) (bool, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.TechnicianCategoryAssignment, error)
	ListByTechnician(ctx context.Context, technicianID string) ([]domain.TechnicianCategoryAssignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.TechnicianCategoryAssignment) error {
	const query = `
        INSERT INTO technician_category_assignments (technician_id, category_id)
        VALUES ($1,$2)
        RETURNING id, assigned_at`
	return r.pool.QueryRow(ctx, query,
		assignment.TechnicianID,
		assignment.CategoryID,
	).Scan(&assignment.ID, &assignment.AssignedAt)
}

func (r *assignmentRepository) Delete(ctx context.Context, technicianID, categoryID string) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM technician_category_assignments WHERE technician_id=$1 AND category_id=$2`,
		technicianID, categoryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) Exists(ctx context.Context, technicianID, categoryID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM technician_category_assignments WHERE technician_id=$1 AND category_id=$2)`,
		technicianID, categoryID).Scan(&exists)
	return exists, err
}

func (r *assignmentRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.TechnicianCategoryAssignment, error) {
	const query = `
        SELECT id, technician_id, category_id, assigned_at
        FROM technician_category_assignments WHERE category_id=$1`
	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *assignmentRepository) ListByTechnician(ctx context.Context, technicianID string) ([]domain.TechnicianCategoryAssignment, error) {
	const query = `
        SELECT id, technician_id, category_id, assigned_at
        FROM technician_category_assignments WHERE technician_id=$1`
	rows, err := r.pool.Query(ctx, query, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]domain.TechnicianCategoryAssignment, error) {
	var result []domain.TechnicianCategoryAssignment
	for rows.Next() {
		var assignment domain.TechnicianCategoryAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.TechnicianID,
			&assignment.CategoryID,
			&assignment.AssignedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
