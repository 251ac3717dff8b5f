package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/organization"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// ErrNotFound is returned when the identity provider has no such resource.
var ErrNotFound = errors.New("identity resource not found")

// errNoSecretKey guards backend calls that would otherwise go out unauthenticated.
var errNoSecretKey = errors.New("identity secret key not configured")

// Organization is the provider's view of a tenant.
type Organization struct {
	ID   string
	Name string
	Slug string
}

// Membership links a user to an organization with a provider role.
type Membership struct {
	OrganizationID string
	Role           string
}

// User is the provider's account record.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Client reads organizations, users and memberships from the identity provider.
type Client interface {
	GetOrganization(ctx context.Context, orgID string) (*Organization, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
}

type backendClient struct {
	configured bool
	orgs       *organization.Client
	users      *user.Client
}

// NewClient builds a backend API client for the identity provider.
func NewClient(baseURL, secretKey string, timeout time.Duration) Client {
	config := backendConfig(baseURL, secretKey, timeout)
	return &backendClient{
		configured: secretKey != "",
		orgs:       organization.NewClient(config),
		users:      user.NewClient(config),
	}
}

// backendConfig scopes SDK calls to one instance instead of the package-level key.
// The SDK appends the API version itself, so a configured /v1 suffix is dropped.
func backendConfig(baseURL, secretKey string, timeout time.Duration) *clerk.ClientConfig {
	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)
	config.HTTPClient = &http.Client{Timeout: timeout}
	if baseURL = strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1"); baseURL != "" {
		config.URL = clerk.String(baseURL)
	}
	return config
}

func (c *backendClient) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	if !c.configured {
		return nil, errNoSecretKey
	}
	org, err := c.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, mapAPIError("organization", err)
	}
	return &Organization{ID: org.ID, Name: org.Name, Slug: org.Slug}, nil
}

func (c *backendClient) GetUser(ctx context.Context, userID string) (*User, error) {
	if !c.configured {
		return nil, errNoSecretKey
	}
	u, err := c.users.Get(ctx, userID)
	if err != nil {
		return nil, mapAPIError("user", err)
	}

	result := &User{ID: u.ID, FirstName: deref(u.FirstName), LastName: deref(u.LastName)}
	primary := deref(u.PrimaryEmailAddressID)
	for _, addr := range u.EmailAddresses {
		if addr == nil {
			continue
		}
		if result.Email == "" || addr.ID == primary {
			result.Email = addr.EmailAddress
		}
	}
	return result, nil
}

func (c *backendClient) ListMemberships(ctx context.Context, userID string) ([]Membership, error) {
	if !c.configured {
		return nil, errNoSecretKey
	}
	params := &user.ListOrganizationMembershipsParams{}
	params.Limit = clerk.Int64(100)
	list, err := c.users.ListOrganizationMemberships(ctx, userID, params)
	if err != nil {
		return nil, mapAPIError("memberships", err)
	}

	memberships := make([]Membership, 0, len(list.OrganizationMemberships))
	for _, m := range list.OrganizationMemberships {
		if m == nil || m.Organization == nil {
			continue
		}
		memberships = append(memberships, Membership{OrganizationID: m.Organization.ID, Role: m.Role})
	}
	return memberships, nil
}

func mapAPIError(resource string, err error) error {
	var apiErr *clerk.APIErrorResponse
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("identity %s request failed: %w", resource, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsAdminRole reports whether a membership role grants organization administration.
func IsAdminRole(role string) bool {
	switch strings.ToLower(role) {
	case "org:admin", "admin", "org:creator", "creator":
		return true
	}
	return false
}
