package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	googlecal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// eventPusher writes meetings to one provider's calendar using an
// authorized HTTP client.
type eventPusher interface {
	Insert(ctx context.Context, client *http.Client, meeting domain.Meeting) (string, error)
	Delete(ctx context.Context, client *http.Client, eventID string) error
}

type googlePusher struct {
	endpoint string
}

func (p googlePusher) service(ctx context.Context, client *http.Client) (*googlecal.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	return googlecal.NewService(ctx, opts...)
}

func (p googlePusher) Insert(ctx context.Context, client *http.Client, meeting domain.Meeting) (string, error) {
	svc, err := p.service(ctx, client)
	if err != nil {
		return "", err
	}
	event := &googlecal.Event{
		Summary:     meeting.Title,
		Description: meeting.Description,
		Start:       &googlecal.EventDateTime{DateTime: meeting.StartsAt.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &googlecal.EventDateTime{DateTime: meeting.EndsAt.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
	if meeting.Location != nil {
		event.Location = *meeting.Location
	}
	for _, email := range meeting.Attendees {
		event.Attendees = append(event.Attendees, &googlecal.EventAttendee{Email: email})
	}
	created, err := svc.Events.Insert("primary", event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google calendar insert: %w", err)
	}
	return created.Id, nil
}

func (p googlePusher) Delete(ctx context.Context, client *http.Client, eventID string) error {
	svc, err := p.service(ctx, client)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete("primary", eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return fmt.Errorf("google calendar delete: %w", err)
	}
	return nil
}

const defaultGraphURL = "https://graph.microsoft.com/v1.0"

type graphPusher struct {
	baseURL string
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	Start     graphDateTime    `json:"start"`
	End       graphDateTime    `json:"end"`
	Location  *graphLocation   `json:"location,omitempty"`
	Attendees []graphAttendees `json:"attendees,omitempty"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphAttendees struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
	Type string `json:"type"`
}

func (p graphPusher) base() string {
	if p.baseURL != "" {
		return strings.TrimRight(p.baseURL, "/")
	}
	return defaultGraphURL
}

func (p graphPusher) Insert(ctx context.Context, client *http.Client, meeting domain.Meeting) (string, error) {
	const layout = "2006-01-02T15:04:05"
	var event graphEvent
	event.Subject = meeting.Title
	event.Body.ContentType = "text"
	event.Body.Content = meeting.Description
	event.Start = graphDateTime{DateTime: meeting.StartsAt.UTC().Format(layout), TimeZone: "UTC"}
	event.End = graphDateTime{DateTime: meeting.EndsAt.UTC().Format(layout), TimeZone: "UTC"}
	if meeting.Location != nil {
		event.Location = &graphLocation{DisplayName: *meeting.Location}
	}
	for _, email := range meeting.Attendees {
		var a graphAttendees
		a.EmailAddress.Address = email
		a.Type = "required"
		event.Attendees = append(event.Attendees, a)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base()+"/me/events", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph create event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("graph create event: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("graph create event: decode: %w", err)
	}
	return created.ID, nil
}

func (p graphPusher) Delete(ctx context.Context, client *http.Client, eventID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.base()+"/me/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("graph delete event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("graph delete event: status %d", resp.StatusCode)
	}
	return nil
}
