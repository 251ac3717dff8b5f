package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/frontdesk/internal/domain"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

type countingAnalyticsRepo struct {
	mu       sync.Mutex
	calls    int
	timezone string
}

func (r *countingAnalyticsRepo) Overview(_ context.Context, _ string, _ domain.DateRange) (*domain.AnalyticsOverview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return &domain.AnalyticsOverview{TotalVisitors: 12, CheckedIn: 3, AverageVisitMinutes: 42.5}, nil
}

func (r *countingAnalyticsRepo) Visitors(_ context.Context, _ string, _ domain.DateRange) (*domain.VisitorAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return &domain.VisitorAnalytics{
		TopCompanies:    []domain.NamedCount{{Name: "Guest Co", Count: 4}},
		StatusBreakdown: map[domain.VisitorStatus]int{domain.VisitorStatusApproved: 4},
	}, nil
}

func (r *countingAnalyticsRepo) Traffic(_ context.Context, _ string, timezone string, _ domain.DateRange) (*domain.TrafficAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.timezone = timezone
	out := &domain.TrafficAnalytics{}
	out.Hourly[9] = 5
	return out, nil
}

// mapCache is a JSONCache backed by a map of marshaled values.
type mapCache struct {
	mu      sync.Mutex
	values  map[string]any
	failGet bool
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("redis down")
	}
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.AnalyticsOverview:
		*d = *(v.(*domain.AnalyticsOverview))
	case *domain.TrafficAnalytics:
		*d = *(v.(*domain.TrafficAnalytics))
	case *domain.VisitorAnalytics:
		*d = *(v.(*domain.VisitorAnalytics))
	}
	return true, nil
}

func (c *mapCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v
	return nil
}

func TestParseRange(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 34, 56, 0, time.UTC)

	r, err := ParseRange(nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 12, 34, 0, 0, time.UTC), r.To)
	assert.Equal(t, r.To.Add(-30*24*time.Hour), r.From)

	from := now.Add(-time.Hour)
	to := now.Add(-2 * time.Hour)
	_, err = ParseRange(&from, &to, now)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.ToDomainError(err).Code)

	longAgo := now.AddDate(-2, 0, 0)
	_, err = ParseRange(&longAgo, nil, now)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.ToDomainError(err).Code)

	same := now
	r, err = ParseRange(&same, &same, now)
	require.NoError(t, err)
	assert.Equal(t, r.From, r.To)
}

func TestAnalyticsService_CachesPerOrganizationAndRange(t *testing.T) {
	repo := &countingAnalyticsRepo{}
	cache := &mapCache{values: map[string]any{}}
	svc := NewAnalyticsService(AnalyticsDependencies{
		AnalyticsRepo: repo,
		OrgRepo:       newFakeOrgRepo(domain.Organization{ID: "org-1", Timezone: "Europe/Berlin"}),
		Cache:         cache,
		CacheTTL:      time.Minute,
	})
	admin := &domain.Staff{ID: "adm", OrganizationID: "org-1", Role: domain.StaffRoleAdmin, Active: true}
	ctx := context.Background()

	first, err := svc.Overview(ctx, admin, nil, nil)
	require.NoError(t, err)
	second, err := svc.Overview(ctx, admin, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)

	traffic, err := svc.Traffic(ctx, admin, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, traffic.Hourly[9])
	assert.Equal(t, "Europe/Berlin", repo.timezone)
	assert.Equal(t, 2, repo.calls)

	cache.failGet = true
	_, err = svc.Visitors(ctx, admin, nil, nil)
	require.NoError(t, err)
	_, err = svc.Visitors(ctx, admin, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, repo.calls)
}

func TestAnalyticsService_RequiresFrontDeskRole(t *testing.T) {
	svc := NewAnalyticsService(AnalyticsDependencies{AnalyticsRepo: &countingAnalyticsRepo{}, OrgRepo: newFakeOrgRepo()})
	employee := &domain.Staff{ID: "emp", OrganizationID: "org-1", Role: domain.StaffRoleEmployee, Active: true}

	_, err := svc.Overview(context.Background(), employee, nil, nil)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	receptionist := &domain.Staff{ID: "desk", OrganizationID: "org-1", Role: domain.StaffRoleReceptionist, Active: true}
	out, err := svc.Overview(context.Background(), receptionist, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, out.TotalVisitors)
}
