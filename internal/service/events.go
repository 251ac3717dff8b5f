package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/events"
	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func staffActor(staff *domain.Staff) *string {
	if staff == nil {
		return nil
	}
	id := staff.ID
	return &id
}

func requireStaff(actor *domain.Staff) error {
	if actor == nil || !actor.Active {
		return apperrors.NewForbidden("staff profile required")
	}
	return nil
}

func requireAdmin(actor *domain.Staff) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func requireRole(actor *domain.Staff, roles ...domain.StaffRole) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if !actor.HasRole(roles...) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// sameOrganization hides records of other tenants as not found.
func sameOrganization(actor *domain.Staff, orgID, resource string) error {
	if actor == nil || actor.OrganizationID != orgID {
		return apperrors.NewNotFound(resource, nil)
	}
	return nil
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
