package calendar

import (
	googlecal "google.golang.org/api/calendar/v3"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/spec-kit/frontdesk/internal/config"
	"github.com/spec-kit/frontdesk/internal/domain"
)

// CallbackPath is where a provider sends the user back after consent.
func CallbackPath(provider domain.CalendarProvider) string {
	return "/api/calendar/" + string(provider) + "/callback"
}

// OAuthConfigs builds the OAuth clients for configured providers. A
// provider without client credentials is omitted.
func OAuthConfigs(cfg config.CalendarConfig, publicURL string) map[domain.CalendarProvider]*oauth2.Config {
	configs := map[domain.CalendarProvider]*oauth2.Config{}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		configs[domain.CalendarGoogle] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  publicURL + CallbackPath(domain.CalendarGoogle),
			Scopes:       []string{googlecal.CalendarEventsScope},
		}
	}
	if cfg.OutlookClientID != "" && cfg.OutlookClientSecret != "" {
		configs[domain.CalendarOutlook] = &oauth2.Config{
			ClientID:     cfg.OutlookClientID,
			ClientSecret: cfg.OutlookClientSecret,
			Endpoint:     microsoft.AzureADEndpoint(cfg.OutlookTenant),
			RedirectURL:  publicURL + CallbackPath(domain.CalendarOutlook),
			Scopes:       []string{"offline_access", "User.Read", "Calendars.ReadWrite"},
		}
	}
	return configs
}
