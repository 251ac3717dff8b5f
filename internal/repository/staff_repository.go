package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// StaffRepository handles persistence for staff profiles.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	Update(ctx context.Context, staff *domain.Staff) error
	UpsertByExternalUserID(ctx context.Context, staff *domain.Staff) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	OrganizationID string
	Roles          []domain.StaffRole
	Active         *bool
	Search         *string
	Limit          int
	Offset         int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, organization_id, external_user_id, name, email, role, department, phone, active_flag, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	const query = `
        INSERT INTO staff (organization_id, external_user_id, name, email, role, department, phone, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		staff.OrganizationID,
		staff.ExternalUserID,
		staff.Name,
		staff.Email,
		staff.Role,
		staff.Department,
		staff.Phone,
		staff.Active,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.Staff) error {
	const query = `
        UPDATE staff
        SET name=$1, email=$2, role=$3, department=$4, phone=$5, active_flag=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		staff.Name,
		staff.Email,
		staff.Role,
		staff.Department,
		staff.Phone,
		staff.Active,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpsertByExternalUserID creates the profile or, when a concurrent request won the
// insert, updates it in place. The unique key on external_user_id makes this safe
// without application locks.
func (r *staffRepository) UpsertByExternalUserID(ctx context.Context, staff *domain.Staff) error {
	const query = `
        INSERT INTO staff (organization_id, external_user_id, name, email, role, active_flag)
        VALUES ($1,$2,$3,$4,$5,TRUE)
        ON CONFLICT (external_user_id) DO UPDATE
        SET organization_id = EXCLUDED.organization_id,
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            role = EXCLUDED.role,
            active_flag = TRUE,
            updated_at = NOW()
        RETURNING ` + staffColumns

	return scanStaff(r.pool.QueryRow(ctx, query,
		staff.OrganizationID,
		staff.ExternalUserID,
		staff.Name,
		staff.Email,
		staff.Role,
	), staff)
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	var staff domain.Staff
	if err := scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id=$1`, id), &staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) GetByExternalUserID(ctx context.Context, externalUserID string) (*domain.Staff, error) {
	var staff domain.Staff
	if err := scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE external_user_id=$1`, externalUserID), &staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	args := []any{filter.OrganizationID}
	clauses := []string{"organization_id=$1"}

	if len(filter.Roles) > 0 {
		roles := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roles = append(roles, string(role))
		}
		args = append(args, roles)
		clauses = append(clauses, fmt.Sprintf("role = ANY($%d)", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += " ORDER BY name ASC"
	query += limitOffset(filter.Limit, filter.Offset, 100)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Staff
	for rows.Next() {
		var staff domain.Staff
		if err := scanStaff(rows, &staff); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

func scanStaff(row pgx.Row, staff *domain.Staff) error {
	return row.Scan(
		&staff.ID,
		&staff.OrganizationID,
		&staff.ExternalUserID,
		&staff.Name,
		&staff.Email,
		&staff.Role,
		&staff.Department,
		&staff.Phone,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
}

func limitOffset(limit, offset, defaultLimit int) string {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
