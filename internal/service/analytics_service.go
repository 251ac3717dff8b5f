package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

const (
	defaultAnalyticsWindow = 30 * 24 * time.Hour
	maxAnalyticsWindow     = 366 * 24 * time.Hour
)

// JSONCache stores report results.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// AnalyticsService serves the admin reports, cached per organization and range.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	orgs      repository.OrganizationRepository
	cache     JSONCache
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// AnalyticsDependencies bundles collaborators.
type AnalyticsDependencies struct {
	AnalyticsRepo repository.AnalyticsRepository
	OrgRepo       repository.OrganizationRepository
	Cache         JSONCache
	CacheTTL      time.Duration
	Logger        *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		analytics: deps.AnalyticsRepo,
		orgs:      deps.OrgRepo,
		cache:     deps.Cache,
		ttl:       deps.CacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// ParseRange fills in the default window of the last 30 days and rejects
// inverted or overlong ranges.
func ParseRange(from, to *time.Time, now time.Time) (domain.DateRange, error) {
	var r domain.DateRange
	if to != nil {
		r.To = to.UTC()
	} else {
		r.To = now.UTC().Truncate(time.Minute)
	}
	if from != nil {
		r.From = from.UTC()
	} else {
		r.From = r.To.Add(-defaultAnalyticsWindow)
	}
	if r.To.Before(r.From) {
		return r, apperrors.NewValidationError("to must not be before from", map[string]any{
			"from": r.From,
			"to":   r.To,
		})
	}
	if r.To.Sub(r.From) > maxAnalyticsWindow {
		return r, apperrors.NewValidationError("range must not exceed 366 days", nil)
	}
	return r, nil
}

// Overview returns headline counters.
func (s *AnalyticsService) Overview(ctx context.Context, actor *domain.Staff, from, to *time.Time) (*domain.AnalyticsOverview, error) {
	r, err := s.authorize(actor, from, to)
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, s, "overview", actor.OrganizationID, r, func() (*domain.AnalyticsOverview, error) {
		return s.analytics.Overview(ctx, actor.OrganizationID, r)
	})
}

// Visitors ranks companies and repeat visitors.
func (s *AnalyticsService) Visitors(ctx context.Context, actor *domain.Staff, from, to *time.Time) (*domain.VisitorAnalytics, error) {
	r, err := s.authorize(actor, from, to)
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, s, "visitors", actor.OrganizationID, r, func() (*domain.VisitorAnalytics, error) {
		return s.analytics.Visitors(ctx, actor.OrganizationID, r)
	})
}

// Traffic buckets check-ins by hour, weekday and day in the organization's time zone.
func (s *AnalyticsService) Traffic(ctx context.Context, actor *domain.Staff, from, to *time.Time) (*domain.TrafficAnalytics, error) {
	r, err := s.authorize(actor, from, to)
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, s, "traffic", actor.OrganizationID, r, func() (*domain.TrafficAnalytics, error) {
		tz := "UTC"
		if org, err := s.orgs.GetByID(ctx, actor.OrganizationID); err == nil && org.Timezone != "" {
			tz = org.Timezone
		}
		return s.analytics.Traffic(ctx, actor.OrganizationID, tz, r)
	})
}

func (s *AnalyticsService) authorize(actor *domain.Staff, from, to *time.Time) (domain.DateRange, error) {
	if err := requireRole(actor, domain.StaffRoleAdmin, domain.StaffRoleReceptionist); err != nil {
		return domain.DateRange{}, err
	}
	return ParseRange(from, to, s.now())
}

// cachedReport reads a report from the cache or loads it. Cache failures
// fall through to the database.
func cachedReport[T any](ctx context.Context, s *AnalyticsService, kind, orgID string, r domain.DateRange, load func() (*T, error)) (*T, error) {
	key := analyticsCacheKey(kind, orgID, r)
	useCache := s.cache != nil && s.ttl > 0
	if useCache {
		var hit T
		found, err := s.cache.GetJSON(ctx, key, &hit)
		if err != nil {
			s.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return &hit, nil
		}
	}

	report, err := load()
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if useCache {
		if err := s.cache.SetJSON(ctx, key, report, s.ttl); err != nil {
			s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

func analyticsCacheKey(kind, orgID string, r domain.DateRange) string {
	return fmt.Sprintf("analytics:%s:%s:%d:%d", kind, orgID, r.From.Unix(), r.To.Unix())
}
