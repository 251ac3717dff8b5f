package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/persistence"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func seedOrganization(t *testing.T, pool *pgxpool.Pool) *domain.Organization {
	t.Helper()
	suffix := uuid.NewString()
	org := &domain.Organization{ExternalID: "org_" + suffix, Name: "Acme", Slug: "acme-" + suffix}
	require.NoError(t, NewOrganizationRepository(pool).Upsert(context.Background(), org))
	return org
}

func TestStaffUpsert_ConcurrentProvisioningCreatesOneRow(t *testing.T) {
	pool := testPool(t)
	org := seedOrganization(t, pool)
	repo := NewStaffRepository(pool)
	externalID := "user_" + uuid.NewString()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.UpsertByExternalUserID(context.Background(), &domain.Staff{
				OrganizationID: org.ID,
				ExternalUserID: externalID,
				Name:           "Owner",
				Email:          "owner@acme.test",
				Role:           domain.StaffRoleAdmin,
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM staff WHERE external_user_id=$1`, externalID).Scan(&count))
	assert.Equal(t, 1, count)

	staff, err := repo.GetByExternalUserID(context.Background(), externalID)
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleAdmin, staff.Role)
}

func TestOrganizationUpsert_RefreshesNameAndSlug(t *testing.T) {
	pool := testPool(t)
	org := seedOrganization(t, pool)
	repo := NewOrganizationRepository(pool)

	renamed := &domain.Organization{ExternalID: org.ExternalID, Name: "Acme Corp", Slug: org.Slug + "-corp"}
	require.NoError(t, repo.Upsert(context.Background(), renamed))
	assert.Equal(t, org.ID, renamed.ID)

	stored, err := repo.GetByExternalID(context.Background(), org.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", stored.Name)
}

func TestVisitorRespond_SecondResponseLeavesDecision(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	org := seedOrganization(t, pool)
	host := &domain.Staff{
		OrganizationID: org.ID,
		ExternalUserID: "user_" + uuid.NewString(),
		Name:           "Host",
		Email:          "host@acme.test",
		Role:           domain.StaffRoleEmployee,
		Active:         true,
	}
	require.NoError(t, NewStaffRepository(pool).Create(ctx, host))

	repo := NewVisitorRepository(pool)
	visitor := &domain.Visitor{
		OrganizationID: org.ID,
		HostStaffID:    host.ID,
		Name:           "Guest",
		Purpose:        "Interview",
		Status:         domain.VisitorStatusPending,
	}
	require.NoError(t, repo.Create(ctx, visitor))

	ok, err := repo.Respond(ctx, visitor.ID, domain.VisitorStatusApproved, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Respond(ctx, visitor.ID, domain.VisitorStatusDeclined, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, visitor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VisitorStatusApproved, stored.Status)
}
