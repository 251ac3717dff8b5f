package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/events"
	"github.com/spec-kit/frontdesk/internal/mail"
	"github.com/spec-kit/frontdesk/internal/observability"
	"github.com/spec-kit/frontdesk/internal/repository"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

// ActionTokenIssuer mints the accept and decline links of arrival emails.
type ActionTokenIssuer interface {
	Issue(visitorID, staffID string, action domain.VisitorAction) (string, time.Time, error)
}

// NotificationService turns domain events into in-app notifications and
// emails, and serves the notification inbox.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	staff         repository.StaffRepository
	orgs          repository.OrganizationRepository
	mailer        mail.Mailer
	tokens        ActionTokenIssuer
	metrics       *observability.Metrics
	logger        *zap.Logger
	publicURL     string
	now           func() time.Time
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	StaffRepo        repository.StaffRepository
	OrgRepo          repository.OrganizationRepository
	Mailer           mail.Mailer
	Tokens           ActionTokenIssuer
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	PublicURL        string
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		staff:         deps.StaffRepo,
		orgs:          deps.OrgRepo,
		mailer:        deps.Mailer,
		tokens:        deps.Tokens,
		metrics:       deps.Metrics,
		logger:        logger,
		publicURL:     strings.TrimRight(deps.PublicURL, "/"),
		now:           time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVisitorCheckedIn, n.handleVisitorCheckedIn)
	n.dispatcher.Subscribe(events.EventVisitorResponded, n.handleVisitorResponded)
	n.dispatcher.Subscribe(events.EventVisitorCheckedOut, n.handleVisitorCheckedOut)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
	n.dispatcher.Subscribe(events.EventMeetingScheduled, n.handleMeetingScheduled)
}

// List returns the caller's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor *domain.Staff, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	items, err := n.notifications.ListForStaff(ctx, actor.ID, unreadOnly, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, nil
}

// UnreadCount feeds the notification badge.
func (n *NotificationService) UnreadCount(ctx context.Context, actor *domain.Staff) (int, error) {
	if err := requireStaff(actor); err != nil {
		return 0, err
	}
	count, err := n.notifications.CountUnread(ctx, actor.ID)
	return count, apperrors.MapError(err)
}

// MarkRead marks one of the caller's notifications read.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.Staff, id string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	ok, err := n.notifications.MarkRead(ctx, actor.ID, id, n.now())
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	return nil
}

// MarkAllRead clears the caller's badge and reports how many were marked.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor *domain.Staff) (int64, error) {
	if err := requireStaff(actor); err != nil {
		return 0, err
	}
	count, err := n.notifications.MarkAllRead(ctx, actor.ID, n.now())
	return count, apperrors.MapError(err)
}

func (n *NotificationService) handleVisitorCheckedIn(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VisitorCheckedInPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	visitor, host := payload.Visitor, payload.Host
	n.notify(ctx, &domain.Notification{
		OrganizationID: event.OrganizationID,
		StaffID:        host.ID,
		Type:           domain.NotificationVisitorArrived,
		Title:          visitor.Name + " is waiting at reception",
		Message:        visitor.Purpose,
		Link:           n.link("/employee/visitors"),
	})

	if n.tokens == nil {
		return nil
	}
	accept, _, err := n.tokens.Issue(visitor.ID, host.ID, domain.VisitorActionAccept)
	if err != nil {
		return err
	}
	decline, _, err := n.tokens.Issue(visitor.ID, host.ID, domain.VisitorActionDecline)
	if err != nil {
		return err
	}
	company := ""
	if visitor.Company != nil {
		company = *visitor.Company
	}
	n.email(ctx, event.OrganizationID, mail.TemplateVisitorArrival, []string{host.Email},
		"Visitor: "+visitor.Name, map[string]any{
			"VisitorName": visitor.Name,
			"Company":     company,
			"Purpose":     visitor.Purpose,
			"AcceptURL":   n.responseURL(accept, domain.VisitorActionAccept),
			"DeclineURL":  n.responseURL(decline, domain.VisitorActionDecline),
		})
	return nil
}

func (n *NotificationService) handleVisitorResponded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VisitorRespondedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	visitor := payload.Visitor
	decision := "accepted"
	if payload.Action == domain.VisitorActionDecline {
		decision = "declined"
	}

	hostName := "Your host"
	if host, err := n.staff.GetByID(ctx, visitor.HostStaffID); err == nil {
		hostName = host.Name
	}
	for _, member := range n.frontDesk(ctx, event.OrganizationID) {
		n.notify(ctx, &domain.Notification{
			OrganizationID: event.OrganizationID,
			StaffID:        member.ID,
			Type:           domain.NotificationVisitorResponded,
			Title:          fmt.Sprintf("%s %s %s", hostName, decision, visitor.Name),
			Message:        visitor.Purpose,
			Link:           n.link("/dashboard/visitors"),
		})
	}

	if visitor.Email != nil && *visitor.Email != "" {
		n.email(ctx, event.OrganizationID, mail.TemplateVisitorResponded, []string{*visitor.Email},
			"Your visit has been "+decision, map[string]any{
				"Decision": decision,
				"HostName": hostName,
				"Purpose":  visitor.Purpose,
			})
	}
	return nil
}

func (n *NotificationService) handleVisitorCheckedOut(_ context.Context, event events.Event) error {
	if payload, ok := event.Payload.(events.VisitorCheckedOutPayload); ok {
		n.logger.Info("visitor checked out",
			zap.String("organization_id", event.OrganizationID),
			zap.String("visitor_id", payload.Visitor.ID))
	}
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket := payload.Ticket
	body, err := mail.RenderMarkdown(ticket.Description)
	if err != nil {
		n.logger.Warn("render ticket description", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	var recipients []string
	for _, member := range n.helpdesk(ctx, event.OrganizationID) {
		if member.ID == ticket.CreatedByID {
			continue
		}
		n.notify(ctx, &domain.Notification{
			OrganizationID: event.OrganizationID,
			StaffID:        member.ID,
			Type:           domain.NotificationTicketCreated,
			Title:          fmt.Sprintf("New ticket %s", ticket.ExternalKey),
			Message:        ticket.Title,
			Link:           n.ticketLink("/it/tickets/", ticket.ID),
		})
		recipients = append(recipients, member.Email)
	}
	if len(recipients) > 0 {
		n.email(ctx, event.OrganizationID, mail.TemplateTicketCreated, recipients,
			fmt.Sprintf("[%s] %s", ticket.ExternalKey, ticket.Title), map[string]any{
				"Key":      ticket.ExternalKey,
				"Title":    ticket.Title,
				"Priority": ticket.Priority,
				"Category": ticket.Category,
				"Body":     body,
				"Link":     deref(n.ticketLink("/it/tickets/", ticket.ID)),
			})
	}
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket := payload.Ticket
	if event.ActorStaffID != nil && *event.ActorStaffID == ticket.CreatedByID {
		return nil
	}
	creator, err := n.staff.GetByID(ctx, ticket.CreatedByID)
	if err != nil {
		return err
	}
	n.notify(ctx, &domain.Notification{
		OrganizationID: event.OrganizationID,
		StaffID:        creator.ID,
		Type:           domain.NotificationTicketUpdated,
		Title:          fmt.Sprintf("%s is now %s", ticket.ExternalKey, payload.NewStatus),
		Message:        ticket.Title,
		Link:           n.ticketLink("/employee/tickets/", ticket.ID),
	})
	n.email(ctx, event.OrganizationID, mail.TemplateTicketUpdated, []string{creator.Email},
		fmt.Sprintf("[%s] %s", ticket.ExternalKey, payload.NewStatus), map[string]any{
			"Key":    ticket.ExternalKey,
			"Status": payload.NewStatus,
			"Title":  ticket.Title,
			"Link":   deref(n.ticketLink("/employee/tickets/", ticket.ID)),
		})
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.AssigneeStaffID == nil {
		return nil
	}
	if event.ActorStaffID != nil && *event.ActorStaffID == *payload.AssigneeStaffID {
		return nil
	}
	n.notify(ctx, &domain.Notification{
		OrganizationID: event.OrganizationID,
		StaffID:        *payload.AssigneeStaffID,
		Type:           domain.NotificationTicketUpdated,
		Title:          fmt.Sprintf("%s was assigned to you", payload.Ticket.ExternalKey),
		Message:        payload.Ticket.Title,
		Link:           n.ticketLink("/it/tickets/", payload.Ticket.ID),
	})
	return nil
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket, msg := payload.Ticket, payload.Message

	// Internal notes never reach the requester.
	recipients := map[string]string{}
	if !msg.Internal {
		recipients[ticket.CreatedByID] = "/employee/tickets/"
	}
	if ticket.AssigneeID != nil {
		recipients[*ticket.AssigneeID] = "/it/tickets/"
	}
	delete(recipients, msg.AuthorID)
	if len(recipients) == 0 {
		return nil
	}

	body, err := mail.RenderMarkdown(msg.Body)
	if err != nil {
		n.logger.Warn("render ticket message", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	author := msg.AuthorName
	if author == "" {
		author = "Someone"
	}
	for staffID, base := range recipients {
		member, err := n.staff.GetByID(ctx, staffID)
		if err != nil {
			n.logger.Warn("load notification recipient", zap.String("staff_id", staffID), zap.Error(err))
			continue
		}
		n.notify(ctx, &domain.Notification{
			OrganizationID: event.OrganizationID,
			StaffID:        member.ID,
			Type:           domain.NotificationTicketMessage,
			Title:          fmt.Sprintf("%s replied on %s", author, ticket.ExternalKey),
			Message:        stringPreview(msg.Body, 120),
			Link:           n.ticketLink(base, ticket.ID),
		})
		n.email(ctx, event.OrganizationID, mail.TemplateTicketMessage, []string{member.Email},
			fmt.Sprintf("Re: [%s] %s", ticket.ExternalKey, ticket.Title), map[string]any{
				"Author": author,
				"Key":    ticket.ExternalKey,
				"Body":   body,
				"Link":   deref(n.ticketLink(base, ticket.ID)),
			})
	}
	return nil
}

func (n *NotificationService) handleMeetingScheduled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MeetingScheduledPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	meeting := payload.Meeting
	organizer, err := n.staff.GetByID(ctx, meeting.OrganizerStaffID)
	if err != nil {
		return err
	}
	n.notify(ctx, &domain.Notification{
		OrganizationID: event.OrganizationID,
		StaffID:        organizer.ID,
		Type:           domain.NotificationMeeting,
		Title:          "Meeting scheduled: " + meeting.Title,
		Message:        meeting.StartsAt.Format(time.RFC1123),
		Link:           n.link("/employee/meetings"),
	})
	if len(meeting.Attendees) == 0 {
		return nil
	}
	location := ""
	if meeting.Location != nil {
		location = *meeting.Location
	}
	when := meeting.StartsAt
	if org, err := n.orgs.GetByID(ctx, event.OrganizationID); err == nil {
		if loc, err := time.LoadLocation(org.Timezone); err == nil {
			when = when.In(loc)
		}
	}
	n.email(ctx, event.OrganizationID, mail.TemplateMeetingScheduled, meeting.Attendees,
		"Invitation: "+meeting.Title, map[string]any{
			"Title":     meeting.Title,
			"When":      when.Format("Mon 2 Jan 2006 15:04 MST"),
			"Location":  location,
			"Organizer": organizer.Name,
		})
	return nil
}

// notify stores an in-app notification. Failures are logged only.
func (n *NotificationService) notify(ctx context.Context, item *domain.Notification) {
	if n.notifications == nil {
		return
	}
	if err := n.notifications.Create(ctx, item); err != nil {
		n.logger.Warn("store notification",
			zap.String("staff_id", item.StaffID),
			zap.String("type", string(item.Type)),
			zap.Error(err))
	}
}

// email renders and sends a template. Delivery errors never reach the
// request that triggered the event.
func (n *NotificationService) email(ctx context.Context, orgID, template string, to []string, subject string, data map[string]any) {
	if n.mailer == nil || len(to) == 0 {
		return
	}
	data["OrgName"] = n.orgName(ctx, orgID)
	html, err := mail.Render(template, data)
	if err != nil {
		n.logger.Error("render email", zap.String("template", template), zap.Error(err))
		n.metrics.RecordEmail(template, err)
		return
	}
	err = n.mailer.Send(ctx, mail.Message{To: to, Subject: subject, HTML: html, Template: template})
	n.metrics.RecordEmail(template, err)
	if err != nil {
		n.logger.Warn("send email", zap.String("template", template), zap.Int("recipients", len(to)), zap.Error(err))
	}
}

func (n *NotificationService) orgName(ctx context.Context, orgID string) string {
	if n.orgs != nil {
		if org, err := n.orgs.GetByID(ctx, orgID); err == nil {
			return org.Name
		}
	}
	return "Frontdesk"
}

func (n *NotificationService) frontDesk(ctx context.Context, orgID string) []domain.Staff {
	return n.staffWithRoles(ctx, orgID, domain.StaffRoleReceptionist, domain.StaffRoleAdmin)
}

func (n *NotificationService) helpdesk(ctx context.Context, orgID string) []domain.Staff {
	return n.staffWithRoles(ctx, orgID, domain.StaffRoleITStaff, domain.StaffRoleAdmin)
}

func (n *NotificationService) staffWithRoles(ctx context.Context, orgID string, roles ...domain.StaffRole) []domain.Staff {
	active := true
	staff, err := n.staff.List(ctx, repository.StaffFilter{
		OrganizationID: orgID,
		Roles:          roles,
		Active:         &active,
		Limit:          200,
	})
	if err != nil {
		n.logger.Warn("list notification recipients", zap.String("organization_id", orgID), zap.Error(err))
		return nil
	}
	return staff
}

func (n *NotificationService) responseURL(token string, action domain.VisitorAction) string {
	return fmt.Sprintf("%s/visitor-response?token=%s&action=%s", n.publicURL, token, action)
}

func (n *NotificationService) link(path string) *string {
	l := n.publicURL + path
	return &l
}

func (n *NotificationService) ticketLink(base, ticketID string) *string {
	return n.link(base + ticketID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
