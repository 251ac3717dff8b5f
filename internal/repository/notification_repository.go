package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForStaff(ctx context.Context, staffID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, staffID string) (int, error)
	MarkRead(ctx context.Context, staffID, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, staffID string, at time.Time) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (organization_id, staff_id, type, title, message, link)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.OrganizationID,
		n.StaffID,
		n.Type,
		n.Title,
		n.Message,
		n.Link,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ListForStaff(ctx context.Context, staffID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := `
        SELECT id, organization_id, staff_id, type, title, message, link, read_at, created_at
        FROM notifications
        WHERE staff_id=$1 AND (NOT $2 OR read_at IS NULL)
        ORDER BY created_at DESC` + limitOffset(limit, 0, 50)
	rows, err := r.pool.Query(ctx, query, staffID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.OrganizationID,
			&n.StaffID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Link,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, staffID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE staff_id=$1 AND read_at IS NULL`,
		staffID,
	).Scan(&count)
	return count, err
}

// MarkRead reports false when the notification does not belong to staffID.
func (r *notificationRepository) MarkRead(ctx context.Context, staffID, id string, at time.Time) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at=COALESCE(read_at, $1) WHERE id=$2 AND staff_id=$3`,
		at, id, staffID,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, staffID string, at time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at=$1 WHERE staff_id=$2 AND read_at IS NULL`,
		at, staffID,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
