package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// TicketFilter captures helpdesk search parameters.
type TicketFilter struct {
	OrganizationID string
	CreatedByID    *string
	AssigneeID     *string
	Statuses       []domain.TicketStatus
	Priorities     []domain.TicketPriority
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Transition writes the status and lifecycle stamps of ticket, but only
	// while the stored status still equals from. It reports false otherwise.
	Transition(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus) (bool, error)
	// Assign writes the assignee and status of ticket under the same
	// from-status guard as Transition.
	Assign(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus) (bool, error)
	UpdatePriority(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, organization_id, external_key, created_by_id, assignee_id, title, description,
               category, status, priority, created_at, updated_at, resolved_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (organization_id, external_key, created_by_id, assignee_id, title, description, category, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.OrganizationID,
		ticket.ExternalKey,
		ticket.CreatedByID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Transition(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, resolved_at=$2, closed_at=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5
        RETURNING updated_at`
	return guardedScan(r.pool.QueryRow(ctx, query,
		ticket.Status,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
		from,
	), &ticket.UpdatedAt)
}

func (r *ticketRepository) Assign(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus) (bool, error) {
	const query = `
        UPDATE tickets SET assignee_id=$1, status=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4
        RETURNING updated_at`
	return guardedScan(r.pool.QueryRow(ctx, query,
		ticket.AssigneeID,
		ticket.Status,
		ticket.ID,
		from,
	), &ticket.UpdatedAt)
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, ticket *domain.Ticket) error {
	return r.pool.QueryRow(ctx,
		`UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`,
		ticket.Priority, ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

// guardedScan reads the RETURNING row of a conditional UPDATE. No row means
// the guard did not match.
func guardedScan(row pgx.Row, updatedAt *time.Time) (bool, error) {
	if err := row.Scan(updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"organization_id=$1"}
	args := []any{filter.OrganizationID}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(external_key) LIKE %s)", placeholder, placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC%s`,
		ticketColumns, strings.Join(clauses, " AND "), limitOffset(filter.Limit, filter.Offset, 20))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.OrganizationID,
		&ticket.ExternalKey,
		&ticket.CreatedByID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	)
}
