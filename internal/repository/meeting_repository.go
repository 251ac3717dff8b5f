package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// MeetingRepository persists meetings.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	ListForOrganizer(ctx context.Context, organizerID string, from *time.Time, limit int) ([]domain.Meeting, error)
	SetExternalEvent(ctx context.Context, id string, provider domain.CalendarProvider, eventID string) error
	Cancel(ctx context.Context, id string) (bool, error)
}

type meetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository instantiates the repository.
func NewMeetingRepository(pool *pgxpool.Pool) MeetingRepository {
	return &meetingRepository{pool: pool}
}

const meetingColumns = `id, organization_id, organizer_staff_id, visitor_id, title, description, location,
               starts_at, ends_at, attendees, status, provider, external_event_id, created_at, updated_at`

func (r *meetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	const query = `
        INSERT INTO meetings (organization_id, organizer_staff_id, visitor_id, title, description, location,
            starts_at, ends_at, attendees, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	attendees := m.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		m.OrganizationID,
		m.OrganizerStaffID,
		m.VisitorID,
		m.Title,
		m.Description,
		m.Location,
		m.StartsAt,
		m.EndsAt,
		attendees,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *meetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := scanMeeting(r.pool.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id=$1`, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *meetingRepository) ListForOrganizer(ctx context.Context, organizerID string, from *time.Time, limit int) ([]domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings
        WHERE organizer_staff_id=$1 AND ($2::timestamptz IS NULL OR ends_at >= $2)
        ORDER BY starts_at ASC` + limitOffset(limit, 0, 100)
	rows, err := r.pool.Query(ctx, query, organizerID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		if err := scanMeeting(rows, &m); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *meetingRepository) SetExternalEvent(ctx context.Context, id string, provider domain.CalendarProvider, eventID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE meetings SET provider=$1, external_event_id=$2, updated_at=NOW() WHERE id=$3`,
		provider, eventID, id,
	)
	return err
}

func (r *meetingRepository) Cancel(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE meetings SET status='CANCELLED', updated_at=NOW() WHERE id=$1 AND status <> 'CANCELLED'`,
		id,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanMeeting(row pgx.Row, m *domain.Meeting) error {
	return row.Scan(
		&m.ID,
		&m.OrganizationID,
		&m.OrganizerStaffID,
		&m.VisitorID,
		&m.Title,
		&m.Description,
		&m.Location,
		&m.StartsAt,
		&m.EndsAt,
		&m.Attendees,
		&m.Status,
		&m.Provider,
		&m.ExternalEventID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
