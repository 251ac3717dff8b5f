package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/calendar"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/events"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// CalendarSync is the calendar integration used by meetings.
type CalendarSync interface {
	AuthURL(staffID string, provider domain.CalendarProvider) (string, error)
	Status(ctx context.Context, staffID string) ([]calendar.ConnectionStatus, error)
	Disconnect(ctx context.Context, staffID string, provider domain.CalendarProvider) (bool, error)
	PushEvent(ctx context.Context, staffID string, meeting domain.Meeting) (domain.CalendarProvider, string, error)
	DeleteEvent(ctx context.Context, staffID string, provider domain.CalendarProvider, eventID string) error
}

// MeetingService schedules meetings and mirrors them to external calendars.
type MeetingService struct {
	meetings   repository.MeetingRepository
	visitors   repository.VisitorRepository
	calendar   CalendarSync
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MeetingDependencies bundles collaborators.
type MeetingDependencies struct {
	MeetingRepo repository.MeetingRepository
	VisitorRepo repository.VisitorRepository
	Calendar    CalendarSync
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// MeetingInput describes a meeting to schedule.
type MeetingInput struct {
	Title       string
	Description string
	Location    *string
	StartsAt    time.Time
	EndsAt      time.Time
	Attendees   []string
	VisitorID   *string
}

// NewMeetingService constructs the service.
func NewMeetingService(deps MeetingDependencies) *MeetingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{
		meetings:   deps.MeetingRepo,
		visitors:   deps.VisitorRepo,
		calendar:   deps.Calendar,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create saves a meeting and pushes it to the organizer's calendar. A
// failed push is logged and the meeting is kept without an external id.
func (s *MeetingService) Create(ctx context.Context, actor *domain.Staff, input MeetingInput) (*domain.Meeting, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, apperrors.NewValidationError("meeting must end after it starts", nil)
	}
	if input.VisitorID != nil {
		visitor, err := s.visitors.GetByID(ctx, *input.VisitorID)
		if err != nil {
			return nil, apperrors.NotFoundOr(err, "visitor", map[string]any{"visitorId": *input.VisitorID})
		}
		if err := sameOrganization(actor, visitor.OrganizationID, "visitor"); err != nil {
			return nil, err
		}
		if visitor.Email != nil && *visitor.Email != "" {
			input.Attendees = append(input.Attendees, *visitor.Email)
		}
	}

	meeting := &domain.Meeting{
		OrganizationID:   actor.OrganizationID,
		OrganizerStaffID: actor.ID,
		VisitorID:        input.VisitorID,
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		Location:         trimmedOrNil(input.Location),
		StartsAt:         input.StartsAt.UTC(),
		EndsAt:           input.EndsAt.UTC(),
		Attendees:        dedupeEmails(input.Attendees),
		Status:           domain.MeetingStatusScheduled,
	}
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.calendar != nil {
		provider, eventID, err := s.calendar.PushEvent(ctx, actor.ID, *meeting)
		switch {
		case errors.Is(err, calendar.ErrNotConnected):
		case err != nil:
			s.logger.Warn("push meeting to calendar",
				zap.String("meeting_id", meeting.ID),
				zap.String("provider", string(provider)),
				zap.Error(err))
		case eventID != "":
			if err := s.meetings.SetExternalEvent(ctx, meeting.ID, provider, eventID); err != nil {
				s.logger.Warn("store external event id", zap.String("meeting_id", meeting.ID), zap.Error(err))
			} else {
				meeting.Provider = &provider
				meeting.ExternalEventID = &eventID
			}
		}
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:           events.EventMeetingScheduled,
		OrganizationID: meeting.OrganizationID,
		ActorStaffID:   staffActor(actor),
		Payload:        events.MeetingScheduledPayload{Meeting: *meeting},
	})
	return meeting, nil
}

// List returns the caller's meetings starting from from.
func (s *MeetingService) List(ctx context.Context, actor *domain.Staff, from *time.Time, limit int) ([]domain.Meeting, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	meetings, err := s.meetings.ListForOrganizer(ctx, actor.ID, from, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return nonNil(meetings), nil
}

// Cancel cancels one of the caller's meetings and removes it from the
// external calendar. Cancelling twice is a no-op.
func (s *MeetingService) Cancel(ctx context.Context, actor *domain.Staff, meetingID string) (*domain.Meeting, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "meeting", map[string]any{"meetingId": meetingID})
	}
	if meeting.OrganizerStaffID != actor.ID && !(actor.Role == domain.StaffRoleAdmin && actor.OrganizationID == meeting.OrganizationID) {
		return nil, apperrors.NewNotFound("meeting", map[string]any{"meetingId": meetingID})
	}
	changed, err := s.meetings.Cancel(ctx, meeting.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	meeting.Status = domain.MeetingStatusCancelled
	if changed && s.calendar != nil && meeting.Provider != nil && meeting.ExternalEventID != nil {
		if err := s.calendar.DeleteEvent(ctx, meeting.OrganizerStaffID, *meeting.Provider, *meeting.ExternalEventID); err != nil {
			s.logger.Warn("delete external calendar event", zap.String("meeting_id", meeting.ID), zap.Error(err))
		}
	}
	return meeting, nil
}

// CalendarStatus reports which calendars the caller has connected.
func (s *MeetingService) CalendarStatus(ctx context.Context, actor *domain.Staff) ([]calendar.ConnectionStatus, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if s.calendar == nil {
		return []calendar.ConnectionStatus{}, nil
	}
	status, err := s.calendar.Status(ctx, actor.ID)
	return status, apperrors.MapError(err)
}

// ConnectURL returns the consent URL for provider.
func (s *MeetingService) ConnectURL(_ context.Context, actor *domain.Staff, provider domain.CalendarProvider) (string, error) {
	if err := requireStaff(actor); err != nil {
		return "", err
	}
	if !provider.Valid() {
		return "", apperrors.NewValidationError("unknown calendar provider", map[string]any{"provider": provider})
	}
	if s.calendar == nil {
		return "", apperrors.NewUnavailable("calendar integration is not configured")
	}
	url, err := s.calendar.AuthURL(actor.ID, provider)
	if errors.Is(err, calendar.ErrProviderUnavailable) {
		return "", apperrors.NewUnavailable(string(provider) + " calendar is not configured")
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return url, nil
}

// DisconnectCalendar removes the caller's link to provider.
func (s *MeetingService) DisconnectCalendar(ctx context.Context, actor *domain.Staff, provider domain.CalendarProvider) (bool, error) {
	if err := requireStaff(actor); err != nil {
		return false, err
	}
	if !provider.Valid() {
		return false, apperrors.NewValidationError("unknown calendar provider", map[string]any{"provider": provider})
	}
	if s.calendar == nil {
		return false, nil
	}
	removed, err := s.calendar.Disconnect(ctx, actor.ID, provider)
	return removed, apperrors.MapError(err)
}

func dedupeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, email := range in {
		email = strings.TrimSpace(email)
		key := strings.ToLower(email)
		if email == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, email)
	}
	return out
}
