package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// CalendarConnectionRepository stores encrypted calendar OAuth tokens.
type CalendarConnectionRepository interface {
	Upsert(ctx context.Context, conn *domain.CalendarConnection) error
	Get(ctx context.Context, staffID string, provider domain.CalendarProvider) (*domain.CalendarConnection, error)
	ListForStaff(ctx context.Context, staffID string) ([]domain.CalendarConnection, error)
	Delete(ctx context.Context, staffID string, provider domain.CalendarProvider) (bool, error)
}

type calendarConnectionRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarConnectionRepository instantiates the repository.
func NewCalendarConnectionRepository(pool *pgxpool.Pool) CalendarConnectionRepository {
	return &calendarConnectionRepository{pool: pool}
}

const calendarColumns = `id, staff_id, provider, access_token, refresh_token, token_type, expiry, created_at, updated_at`

// Upsert keeps the previous refresh token when the provider omits a new one.
func (r *calendarConnectionRepository) Upsert(ctx context.Context, c *domain.CalendarConnection) error {
	const query = `
        INSERT INTO calendar_connections (staff_id, provider, access_token, refresh_token, token_type, expiry)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (staff_id, provider) DO UPDATE
        SET access_token = EXCLUDED.access_token,
            refresh_token = COALESCE(EXCLUDED.refresh_token, calendar_connections.refresh_token),
            token_type = EXCLUDED.token_type,
            expiry = EXCLUDED.expiry,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.StaffID,
		c.Provider,
		c.AccessToken,
		c.RefreshToken,
		c.TokenType,
		c.Expiry,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *calendarConnectionRepository) Get(ctx context.Context, staffID string, provider domain.CalendarProvider) (*domain.CalendarConnection, error) {
	var c domain.CalendarConnection
	err := r.pool.QueryRow(ctx,
		`SELECT `+calendarColumns+` FROM calendar_connections WHERE staff_id=$1 AND provider=$2`,
		staffID, provider,
	).Scan(&c.ID, &c.StaffID, &c.Provider, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Expiry, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *calendarConnectionRepository) ListForStaff(ctx context.Context, staffID string) ([]domain.CalendarConnection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+calendarColumns+` FROM calendar_connections WHERE staff_id=$1 ORDER BY provider`,
		staffID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CalendarConnection
	for rows.Next() {
		var c domain.CalendarConnection
		if err := rows.Scan(&c.ID, &c.StaffID, &c.Provider, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Expiry, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *calendarConnectionRepository) Delete(ctx context.Context, staffID string, provider domain.CalendarProvider) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM calendar_connections WHERE staff_id=$1 AND provider=$2`,
		staffID, provider,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
