package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	OrganizationID string
	OwnerStaffID   *string
	Statuses       []domain.ProjectStatus
	Limit          int
	Offset         int
}

// ProjectRepository persists IT projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectColumns = `id, organization_id, owner_staff_id, name, description, status, progress, start_date, due_date, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (organization_id, owner_staff_id, name, description, status, progress, start_date, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		project.OrganizationID,
		project.OwnerStaffID,
		project.Name,
		project.Description,
		project.Status,
		project.Progress,
		project.StartDate,
		project.DueDate,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
        UPDATE projects SET owner_staff_id=$1, name=$2, description=$3, status=$4, progress=$5,
            start_date=$6, due_date=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		project.OwnerStaffID,
		project.Name,
		project.Description,
		project.Status,
		project.Progress,
		project.StartDate,
		project.DueDate,
		project.ID,
	).Scan(&project.UpdatedAt)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	if err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error) {
	args := []any{filter.OrganizationID}
	clauses := []string{"organization_id=$1"}
	if filter.OwnerStaffID != nil {
		args = append(args, *filter.OwnerStaffID)
		clauses = append(clauses, fmt.Sprintf("owner_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY due_date ASC NULLS LAST, created_at DESC` + limitOffset(filter.Limit, filter.Offset, 50)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := scanProject(rows, &project); err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, rows.Err()
}

func scanProject(row pgx.Row, p *domain.Project) error {
	return row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.OwnerStaffID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.Progress,
		&p.StartDate,
		&p.DueDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
