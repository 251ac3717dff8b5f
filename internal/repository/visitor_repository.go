package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// VisitorFilter captures front desk search parameters.
type VisitorFilter struct {
	OrganizationID string
	HostStaffID    *string
	Statuses       []domain.VisitorStatus
	Search         *string
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

// VisitorRepository persists visitors and their check-in log.
type VisitorRepository interface {
	Create(ctx context.Context, visitor *domain.Visitor) error
	GetByID(ctx context.Context, id string) (*domain.Visitor, error)
	List(ctx context.Context, filter VisitorFilter) ([]domain.Visitor, error)
	CountPendingForHost(ctx context.Context, hostStaffID string) (int, error)
	// Respond moves a PENDING visitor to status. It reports false when the
	// visitor was no longer pending, leaving the stored decision untouched.
	Respond(ctx context.Context, id string, status domain.VisitorStatus, at time.Time) (bool, error)
	// CheckOut stamps the departure of a visitor whose status is one of from.
	// It reports false when the stored status matched none of them.
	CheckOut(ctx context.Context, id string, at time.Time, from []domain.VisitorStatus) (bool, error)
	AppendLog(ctx context.Context, entry *domain.CheckInLog) error
	ListLogs(ctx context.Context, visitorID string) ([]domain.CheckInLog, error)
}

type visitorRepository struct {
	pool *pgxpool.Pool
}

// NewVisitorRepository instantiates the repository.
func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

const visitorColumns = `id, organization_id, host_staff_id, name, email, phone, company, purpose, photo_url,
               status, responded_at, checked_in_at, checked_out_at, created_at, updated_at`

func (r *visitorRepository) Create(ctx context.Context, visitor *domain.Visitor) error {
	const query = `
        INSERT INTO visitors (organization_id, host_staff_id, name, email, phone, company, purpose, photo_url, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, checked_in_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		visitor.OrganizationID,
		visitor.HostStaffID,
		visitor.Name,
		visitor.Email,
		visitor.Phone,
		visitor.Company,
		visitor.Purpose,
		visitor.PhotoURL,
		visitor.Status,
	).Scan(&visitor.ID, &visitor.CheckedInAt, &visitor.CreatedAt, &visitor.UpdatedAt)
}

func (r *visitorRepository) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	var visitor domain.Visitor
	if err := scanVisitor(r.pool.QueryRow(ctx, `SELECT `+visitorColumns+` FROM visitors WHERE id=$1`, id), &visitor); err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *visitorRepository) List(ctx context.Context, filter VisitorFilter) ([]domain.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors`
	args := []any{filter.OrganizationID}
	clauses := []string{"organization_id=$1"}

	if filter.HostStaffID != nil {
		args = append(args, *filter.HostStaffID)
		clauses = append(clauses, fmt.Sprintf("host_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", len(args), len(args), len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("checked_in_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("checked_in_at < $%d", len(args)))
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += " ORDER BY checked_in_at DESC"
	query += limitOffset(filter.Limit, filter.Offset, 50)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Visitor
	for rows.Next() {
		var visitor domain.Visitor
		if err := scanVisitor(rows, &visitor); err != nil {
			return nil, err
		}
		result = append(result, visitor)
	}
	return result, rows.Err()
}

func (r *visitorRepository) CountPendingForHost(ctx context.Context, hostStaffID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visitors WHERE host_staff_id=$1 AND status='PENDING'`,
		hostStaffID,
	).Scan(&count)
	return count, err
}

func (r *visitorRepository) Respond(ctx context.Context, id string, status domain.VisitorStatus, at time.Time) (bool, error) {
	const query = `
        UPDATE visitors SET status=$1, responded_at=$2, updated_at=NOW()
        WHERE id=$3 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query, status, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *visitorRepository) CheckOut(ctx context.Context, id string, at time.Time, from []domain.VisitorStatus) (bool, error) {
	const query = `
        UPDATE visitors SET status='CHECKED_OUT', checked_out_at=$1, updated_at=NOW()
        WHERE id=$2 AND status = ANY($3) AND status <> 'CHECKED_OUT'`
	statuses := make([]string, len(from))
	for i, status := range from {
		statuses[i] = string(status)
	}
	cmd, err := r.pool.Exec(ctx, query, at, id, statuses)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *visitorRepository) AppendLog(ctx context.Context, entry *domain.CheckInLog) error {
	const query = `
        INSERT INTO check_in_logs (organization_id, visitor_id, action, performed_by, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.OrganizationID,
		entry.VisitorID,
		entry.Action,
		entry.PerformedBy,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *visitorRepository) ListLogs(ctx context.Context, visitorID string) ([]domain.CheckInLog, error) {
	const query = `
        SELECT id, organization_id, visitor_id, action, performed_by, note, created_at
        FROM check_in_logs WHERE visitor_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, visitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CheckInLog
	for rows.Next() {
		var entry domain.CheckInLog
		if err := rows.Scan(
			&entry.ID,
			&entry.OrganizationID,
			&entry.VisitorID,
			&entry.Action,
			&entry.PerformedBy,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanVisitor(row pgx.Row, v *domain.Visitor) error {
	return row.Scan(
		&v.ID,
		&v.OrganizationID,
		&v.HostStaffID,
		&v.Name,
		&v.Email,
		&v.Phone,
		&v.Company,
		&v.Purpose,
		&v.PhotoURL,
		&v.Status,
		&v.RespondedAt,
		&v.CheckedInAt,
		&v.CheckedOutAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
}
