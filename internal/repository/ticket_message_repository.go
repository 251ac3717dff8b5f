package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	// ListByTicket returns messages oldest first. since limits the result to
	// messages newer than the given instant so pollers only fetch the tail.
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool, since *time.Time) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        WITH inserted AS (
            INSERT INTO ticket_messages (ticket_id, author_id, body, internal)
            VALUES ($1,$2,$3,$4)
            RETURNING id, author_id, created_at
        )
        SELECT inserted.id, inserted.created_at, staff.name
        FROM inserted JOIN staff ON staff.id = inserted.author_id`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorID,
		msg.Body,
		msg.Internal,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.AuthorName)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool, since *time.Time) ([]domain.TicketMessage, error) {
	const query = `
        SELECT m.id, m.ticket_id, m.author_id, s.name, m.body, m.internal, m.created_at
        FROM ticket_messages m JOIN staff s ON s.id = m.author_id
        WHERE m.ticket_id=$1
          AND ($2 OR NOT m.internal)
          AND ($3::timestamptz IS NULL OR m.created_at > $3)
        ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID, includeInternal, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.Body,
			&msg.Internal,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
