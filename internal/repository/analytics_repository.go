package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

const topN = 10

// AnalyticsRepository runs reporting aggregates for one organization.
type AnalyticsRepository interface {
	Overview(ctx context.Context, orgID string, r domain.DateRange) (*domain.AnalyticsOverview, error)
	Visitors(ctx context.Context, orgID string, r domain.DateRange) (*domain.VisitorAnalytics, error)
	// Traffic buckets check-ins in the organization's time zone.
	Traffic(ctx context.Context, orgID, timezone string, r domain.DateRange) (*domain.TrafficAnalytics, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) Overview(ctx context.Context, orgID string, rng domain.DateRange) (*domain.AnalyticsOverview, error) {
	const visitorQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='APPROVED'),
               COUNT(*) FILTER (WHERE status='CHECKED_OUT'),
               COUNT(*) FILTER (WHERE status='PENDING'),
               COUNT(*) FILTER (WHERE status='DECLINED'),
               COALESCE(AVG(EXTRACT(EPOCH FROM (checked_out_at - checked_in_at)) / 60)
                   FILTER (WHERE checked_out_at IS NOT NULL), 0)
        FROM visitors
        WHERE organization_id=$1 AND checked_in_at >= $2 AND checked_in_at < $3`

	var out domain.AnalyticsOverview
	if err := r.pool.QueryRow(ctx, visitorQuery, orgID, rng.From, rng.To).Scan(
		&out.TotalVisitors,
		&out.CheckedIn,
		&out.CheckedOut,
		&out.PendingApprovals,
		&out.Declined,
		&out.AverageVisitMinutes,
	); err != nil {
		return nil, err
	}

	const ticketQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status IN ('OPEN','IN_PROGRESS','ON_HOLD'))
        FROM tickets
        WHERE organization_id=$1 AND created_at >= $2 AND created_at < $3`
	if err := r.pool.QueryRow(ctx, ticketQuery, orgID, rng.From, rng.To).Scan(&out.TotalTickets, &out.OpenTickets); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *analyticsRepository) Visitors(ctx context.Context, orgID string, rng domain.DateRange) (*domain.VisitorAnalytics, error) {
	out := domain.VisitorAnalytics{StatusBreakdown: map[domain.VisitorStatus]int{}}

	const companies = `
        SELECT company, COUNT(*) AS c
        FROM visitors
        WHERE organization_id=$1 AND checked_in_at >= $2 AND checked_in_at < $3
          AND company IS NOT NULL AND company <> ''
        GROUP BY company ORDER BY c DESC, company ASC LIMIT $4`
	rows, err := r.pool.Query(ctx, companies, orgID, rng.From, rng.To, topN)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var nc domain.NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		out.TopCompanies = append(out.TopCompanies, nc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const visitors = `
        SELECT MAX(name), LOWER(email) AS e, COUNT(*) AS c
        FROM visitors
        WHERE organization_id=$1 AND checked_in_at >= $2 AND checked_in_at < $3
          AND email IS NOT NULL AND email <> ''
        GROUP BY e ORDER BY c DESC, e ASC LIMIT $4`
	rows, err = r.pool.Query(ctx, visitors, orgID, rng.From, rng.To, topN)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var nc domain.NamedCount
		if err := rows.Scan(&nc.Name, &nc.Email, &nc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		out.TopVisitors = append(out.TopVisitors, nc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const statuses = `
        SELECT status, COUNT(*)
        FROM visitors
        WHERE organization_id=$1 AND checked_in_at >= $2 AND checked_in_at < $3
        GROUP BY status`
	rows, err = r.pool.Query(ctx, statuses, orgID, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.VisitorStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out.StatusBreakdown[status] = count
	}
	return &out, rows.Err()
}

func (r *analyticsRepository) Traffic(ctx context.Context, orgID, timezone string, rng domain.DateRange) (*domain.TrafficAnalytics, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	const query = `
        SELECT EXTRACT(HOUR FROM local)::int,
               EXTRACT(DOW FROM local)::int,
               to_char(local, 'YYYY-MM-DD'),
               COUNT(*)
        FROM (
            SELECT checked_in_at AT TIME ZONE $4 AS local
            FROM visitors
            WHERE organization_id=$1 AND checked_in_at >= $2 AND checked_in_at < $3
        ) v
        GROUP BY 1, 2, 3
        ORDER BY 3`
	rows, err := r.pool.Query(ctx, query, orgID, rng.From, rng.To, timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out domain.TrafficAnalytics
	daily := map[string]int{}
	var days []string
	for rows.Next() {
		var hour, dow, count int
		var day string
		if err := rows.Scan(&hour, &dow, &day, &count); err != nil {
			return nil, err
		}
		if hour >= 0 && hour < 24 {
			out.Hourly[hour] += count
		}
		if dow >= 0 && dow < 7 {
			out.DayOfWeek[dow] += count
		}
		if _, seen := daily[day]; !seen {
			days = append(days, day)
		}
		daily[day] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, day := range days {
		out.Daily = append(out.Daily, domain.DailyCount{Date: day, Count: daily[day]})
	}
	return &out, nil
}
