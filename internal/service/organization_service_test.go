package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/frontdesk/internal/domain"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

func TestOrganizationService_Update(t *testing.T) {
	orgs := newFakeOrgRepo(domain.Organization{ID: "org-1", Name: "Acme", Slug: "acme", Timezone: "UTC", LogoURL: ptr("https://cdn.acme.test/old.png")})
	svc := NewOrganizationService(orgs)
	admin := domain.Staff{ID: "adm-1", OrganizationID: "org-1", Role: domain.StaffRoleAdmin, Active: true}
	receptionist := domain.Staff{ID: "rec-1", OrganizationID: "org-1", Role: domain.StaffRoleReceptionist, Active: true}
	ctx := context.Background()

	_, err := svc.Update(ctx, &receptionist, OrganizationUpdate{Timezone: ptr("Europe/Berlin")})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	_, err = svc.Update(ctx, &admin, OrganizationUpdate{Timezone: ptr("Mars/Olympus")})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.ToDomainError(err).Code)

	org, err := svc.Update(ctx, &admin, OrganizationUpdate{Timezone: ptr("Europe/Berlin"), LogoURL: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", org.Timezone)
	assert.Nil(t, org.LogoURL)

	stored, err := svc.Get(ctx, &receptionist)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", stored.Timezone)
	assert.Nil(t, stored.LogoURL)
}

func TestOrganizationService_Public(t *testing.T) {
	svc := NewOrganizationService(newFakeOrgRepo(domain.Organization{ID: "org-1", Name: "Acme", Slug: "acme", ExternalID: "ext-1"}))

	public, err := svc.Public(context.Background(), " acme ")
	require.NoError(t, err)
	assert.Equal(t, &PublicOrganization{Name: "Acme", Slug: "acme"}, public)

	_, err = svc.Public(context.Background(), "globex")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}
