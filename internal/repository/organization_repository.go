package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// OrganizationRepository persists tenant records mirrored from the identity provider.
type OrganizationRepository interface {
	Upsert(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	UpdateSettings(ctx context.Context, org *domain.Organization) error
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository instantiates the repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const organizationColumns = `id, external_id, name, slug, logo_url, timezone, created_at, updated_at`

// Upsert inserts the organization or refreshes name and slug of the existing row.
func (r *organizationRepository) Upsert(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (external_id, name, slug)
        VALUES ($1,$2,$3)
        ON CONFLICT (external_id) DO UPDATE
        SET name = EXCLUDED.name, slug = EXCLUDED.slug, updated_at = NOW()
        RETURNING ` + organizationColumns

	return scanOrganization(r.pool.QueryRow(ctx, query, org.ExternalID, org.Name, org.Slug), org)
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	return r.fetch(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id=$1`, id)
}

func (r *organizationRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Organization, error) {
	return r.fetch(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE external_id=$1`, externalID)
}

func (r *organizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	return r.fetch(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slug=$1`, slug)
}

func (r *organizationRepository) UpdateSettings(ctx context.Context, org *domain.Organization) error {
	const query = `
        UPDATE organizations SET logo_url=$1, timezone=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, org.LogoURL, org.Timezone, org.ID).Scan(&org.UpdatedAt)
}

func (r *organizationRepository) fetch(ctx context.Context, query string, arg any) (*domain.Organization, error) {
	var org domain.Organization
	if err := scanOrganization(r.pool.QueryRow(ctx, query, arg), &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func scanOrganization(row pgx.Row, org *domain.Organization) error {
	return row.Scan(
		&org.ID,
		&org.ExternalID,
		&org.Name,
		&org.Slug,
		&org.LogoURL,
		&org.Timezone,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
}
