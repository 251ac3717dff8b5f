package domain

import "time"

// Organization is the tenant boundary mirrored from the identity provider.
type Organization struct {
	ID         string
	ExternalID string
	Name       string
	Slug       string
	LogoURL    *string
	Timezone   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
