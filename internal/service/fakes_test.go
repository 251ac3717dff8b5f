package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/identity"
	"github.com/spec-kit/frontdesk/internal/mail"
	"github.com/spec-kit/frontdesk/internal/repository"
)

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// fakeOrgRepo is an in-memory OrganizationRepository.
type fakeOrgRepo struct {
	ids  idSeq
	mu   sync.Mutex
	orgs map[string]*domain.Organization
}

func newFakeOrgRepo(orgs ...domain.Organization) *fakeOrgRepo {
	r := &fakeOrgRepo{orgs: map[string]*domain.Organization{}}
	for i := range orgs {
		o := orgs[i]
		r.orgs[o.ID] = &o
	}
	return r
}

func (r *fakeOrgRepo) Upsert(_ context.Context, org *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if existing.ExternalID == org.ExternalID {
			existing.Name, existing.Slug = org.Name, org.Slug
			*org = *existing
			return nil
		}
	}
	org.ID = r.ids.next("org")
	if org.Timezone == "" {
		org.Timezone = "UTC"
	}
	c := *org
	r.orgs[org.ID] = &c
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orgs[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrgRepo) find(match func(*domain.Organization) bool) (*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if match(o) {
			c := *o
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrgRepo) GetByExternalID(_ context.Context, externalID string) (*domain.Organization, error) {
	return r.find(func(o *domain.Organization) bool { return o.ExternalID == externalID })
}

func (r *fakeOrgRepo) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	return r.find(func(o *domain.Organization) bool { return o.Slug == slug })
}

func (r *fakeOrgRepo) UpdateSettings(_ context.Context, org *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orgs[org.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.LogoURL, existing.Timezone = org.LogoURL, org.Timezone
	return nil
}

// fakeStaffRepo is an in-memory StaffRepository.
type fakeStaffRepo struct {
	ids   idSeq
	mu    sync.Mutex
	staff map[string]*domain.Staff
}

func newFakeStaffRepo(members ...domain.Staff) *fakeStaffRepo {
	r := &fakeStaffRepo{staff: map[string]*domain.Staff{}}
	for i := range members {
		m := members[i]
		r.staff[m.ID] = &m
	}
	return r
}

func (r *fakeStaffRepo) Create(_ context.Context, s *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.ids.next("staff")
	c := *s
	r.staff[s.ID] = &c
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, s *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	c := *s
	r.staff[s.ID] = &c
	return nil
}

func (r *fakeStaffRepo) UpsertByExternalUserID(_ context.Context, s *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.staff {
		if existing.ExternalUserID == s.ExternalUserID {
			*s = *existing
			return nil
		}
	}
	s.ID = r.ids.next("staff")
	c := *s
	r.staff[s.ID] = &c
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.staff[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) GetByExternalUserID(_ context.Context, externalUserID string) (*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if s.ExternalUserID == externalUserID {
			c := *s
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) List(_ context.Context, f repository.StaffFilter) ([]domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Staff
	for _, s := range r.staff {
		if s.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Active != nil && s.Active != *f.Active {
			continue
		}
		if len(f.Roles) > 0 && !s.HasRole(f.Roles...) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeVisitorRepo is an in-memory VisitorRepository with the same
// conditional update semantics as the SQL implementation.
type fakeVisitorRepo struct {
	ids      idSeq
	mu       sync.Mutex
	visitors map[string]*domain.Visitor
	logs     []domain.CheckInLog
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{visitors: map[string]*domain.Visitor{}}
}

func (r *fakeVisitorRepo) Create(_ context.Context, v *domain.Visitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = r.ids.next("visitor")
	v.CheckedInAt = time.Now()
	c := *v
	r.visitors[v.ID] = &c
	return nil
}

func (r *fakeVisitorRepo) GetByID(_ context.Context, id string) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visitors[id]; ok {
		c := *v
		return &c, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeVisitorRepo) List(_ context.Context, f repository.VisitorFilter) ([]domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Visitor
	for _, v := range r.visitors {
		if v.OrganizationID != f.OrganizationID {
			continue
		}
		if f.HostStaffID != nil && v.HostStaffID != *f.HostStaffID {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				match = match || v.Status == s
			}
			if !match {
				continue
			}
		}
		if f.Search != nil && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(*f.Search)) {
			continue
		}
		if f.From != nil && v.CheckedInAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !v.CheckedInAt.Before(*f.To) {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (r *fakeVisitorRepo) CountPendingForHost(_ context.Context, hostStaffID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.visitors {
		if v.HostStaffID == hostStaffID && v.Status == domain.VisitorStatusPending {
			n++
		}
	}
	return n, nil
}

func (r *fakeVisitorRepo) Respond(_ context.Context, id string, status domain.VisitorStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if !ok || v.Status != domain.VisitorStatusPending {
		return false, nil
	}
	v.Status = status
	v.RespondedAt = &at
	return true, nil
}

func (r *fakeVisitorRepo) CheckOut(_ context.Context, id string, at time.Time, from []domain.VisitorStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if !ok || v.Status == domain.VisitorStatusCheckedOut || !slices.Contains(from, v.Status) {
		return false, nil
	}
	v.Status = domain.VisitorStatusCheckedOut
	v.CheckedOutAt = &at
	return true, nil
}

func (r *fakeVisitorRepo) AppendLog(_ context.Context, entry *domain.CheckInLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.ids.next("log")
	entry.CreatedAt = time.Now()
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeVisitorRepo) ListLogs(_ context.Context, visitorID string) ([]domain.CheckInLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CheckInLog
	for _, l := range r.logs {
		if l.VisitorID == visitorID {
			out = append(out, l)
		}
	}
	return out, nil
}

// fakeTicketRepo is an in-memory TicketRepository.
type fakeTicketRepo struct {
	ids     idSeq
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	filters []repository.TicketFilter

	interleave func(stored *domain.Ticket)
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.ids.next("ticket")
	c := *t
	r.tickets[t.ID] = &c
	return nil
}

// guardedWrite applies write to the stored ticket when its status still
// equals from. interleave runs first and stands in for a concurrent writer.
func (r *fakeTicketRepo) guardedWrite(id string, from domain.TicketStatus, write func(stored *domain.Ticket)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return false, nil
	}
	if r.interleave != nil {
		r.interleave(stored)
	}
	if stored.Status != from {
		return false, nil
	}
	write(stored)
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTicketRepo) Transition(_ context.Context, t *domain.Ticket, from domain.TicketStatus) (bool, error) {
	return r.guardedWrite(t.ID, from, func(stored *domain.Ticket) {
		stored.Status = t.Status
		stored.ResolvedAt = t.ResolvedAt
		stored.ClosedAt = t.ClosedAt
	})
}

func (r *fakeTicketRepo) Assign(_ context.Context, t *domain.Ticket, from domain.TicketStatus) (bool, error) {
	return r.guardedWrite(t.ID, from, func(stored *domain.Ticket) {
		stored.AssigneeID = t.AssigneeID
		stored.Status = t.Status
	})
}

func (r *fakeTicketRepo) UpdatePriority(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[t.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Priority = t.Priority
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tickets[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.OrganizationID != f.OrganizationID {
			continue
		}
		if f.CreatedByID != nil && t.CreatedByID != *f.CreatedByID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

// fakeMessageRepo is an in-memory TicketMessageRepository.
type fakeMessageRepo struct {
	ids      idSeq
	mu       sync.Mutex
	messages []domain.TicketMessage
}

func (r *fakeMessageRepo) Create(_ context.Context, m *domain.TicketMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.ids.next("msg")
	m.CreatedAt = time.Now()
	r.messages = append(r.messages, *m)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool, since *time.Time) ([]domain.TicketMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketMessage
	for _, m := range r.messages {
		if m.TicketID != ticketID || (m.Internal && !includeInternal) {
			continue
		}
		if since != nil && !m.CreatedAt.After(*since) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// fakeNotificationRepo is an in-memory NotificationRepository.
type fakeNotificationRepo struct {
	ids   idSeq
	mu    sync.Mutex
	items []domain.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.ids.next("notif")
	n.CreatedAt = time.Now()
	r.items = append(r.items, *n)
	return nil
}

func (r *fakeNotificationRepo) ListForStaff(_ context.Context, staffID string, unreadOnly bool, _ int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.items {
		if n.StaffID == staffID && (!unreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, staffID string) (int, error) {
	items, _ := r.ListForStaff(context.Background(), staffID, true, 0)
	return len(items), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, staffID, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].StaffID == staffID {
			if r.items[i].ReadAt == nil {
				r.items[i].ReadAt = &at
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, staffID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].StaffID == staffID && r.items[i].ReadAt == nil {
			r.items[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) forStaff(staffID string) []domain.Notification {
	items, _ := r.ListForStaff(context.Background(), staffID, false, 0)
	return items
}

// mockIdentity is a testify mock of identity.Client.
type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) GetOrganization(ctx context.Context, orgID string) (*identity.Organization, error) {
	args := m.Called(ctx, orgID)
	org, _ := args.Get(0).(*identity.Organization)
	return org, args.Error(1)
}

func (m *mockIdentity) GetUser(ctx context.Context, userID string) (*identity.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *mockIdentity) ListMemberships(ctx context.Context, userID string) ([]identity.Membership, error) {
	args := m.Called(ctx, userID)
	memberships, _ := args.Get(0).([]identity.Membership)
	return memberships, args.Error(1)
}

// recordingMailer captures sent messages.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) byTemplate(name string) []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mail.Message
	for _, msg := range m.sent {
		if msg.Template == name {
			out = append(out, msg)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
