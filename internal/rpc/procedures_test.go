package rpc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/frontdesk/internal/auth"
)

func TestRegisterProcedures_Surface(t *testing.T) {
	r := NewRouter(Options{})
	RegisterProcedures(r, Services{})

	assert.ElementsMatch(t, []string{
		"visitor.checkIn", "visitor.checkOut", "visitor.respond", "visitor.verifyToken",
		"visitor.list", "visitor.get", "visitor.pendingCount", "visitor.respondAsHost",
		"visitor.checkOutByStaff", "visitor.logs",
		"staff.me", "staff.list", "staff.create", "staff.updateRole", "staff.deactivate", "staff.hosts",
		"employee.dashboard",
		"ticket.create", "ticket.list", "ticket.get", "ticket.messages", "ticket.addMessage",
		"ticket.updateStatus", "ticket.assign", "ticket.updatePriority",
		"project.create", "project.list", "project.get", "project.update",
		"notification.list", "notification.unreadCount", "notification.markRead", "notification.markAllRead",
		"meeting.create", "meeting.list", "meeting.cancel", "meeting.calendarStatus", "meeting.connectUrl",
		"analytics.overview", "analytics.visitors", "analytics.traffic",
		"organization.get", "organization.update", "organization.public",
	}, r.Procedures())
}

func TestRegisterProcedures_PublicMatchesGate(t *testing.T) {
	r := NewRouter(Options{})
	RegisterProcedures(r, Services{})

	var gatePublic []string
	for _, pattern := range auth.DefaultPublicRoutes {
		if name, ok := strings.CutPrefix(pattern, "/api/rpc/"); ok {
			gatePublic = append(gatePublic, name)
		}
	}
	assert.ElementsMatch(t, gatePublic, r.PublicProcedures())
}
