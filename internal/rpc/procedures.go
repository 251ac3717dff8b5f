package rpc

import (
	"github.com/spec-kit/frontdesk/internal/api/dto"
	"github.com/spec-kit/frontdesk/internal/domain"
	"github.com/spec-kit/frontdesk/internal/service"
)

// Services are the procedure backends.
type Services struct {
	Visitors      *service.VisitorService
	Staff         *service.StaffService
	Employees     *service.EmployeeService
	Tickets       *service.TicketService
	Projects      *service.ProjectService
	Notifications *service.NotificationService
	Meetings      *service.MeetingService
	Analytics     *service.AnalyticsService
	Organizations *service.OrganizationService
}

var (
	frontDesk = Roles(domain.StaffRoleAdmin, domain.StaffRoleReceptionist)
	helpdesk  = Roles(domain.StaffRoleITStaff, domain.StaffRoleAdmin)
	adminOnly = Roles(domain.StaffRoleAdmin)
)

// RegisterProcedures wires every procedure onto r.
func RegisterProcedures(r *Router, s Services) {
	registerVisitor(r, s.Visitors)
	registerStaff(r, s.Staff)
	registerEmployee(r, s.Employees)
	registerTicket(r, s.Tickets)
	registerProject(r, s.Projects)
	registerNotification(r, s.Notifications)
	registerMeeting(r, s.Meetings)
	registerAnalytics(r, s.Analytics)
	registerOrganization(r, s.Organizations)
}

func registerVisitor(r *Router, visitors *service.VisitorService) {
	r.Register("visitor.checkIn", Public, func(call *Call) (any, error) {
		in, err := Input[dto.CheckInRequest](call)
		if err != nil {
			return nil, err
		}
		visitor, err := visitors.CheckIn(call.Context(), in.Input())
		if err != nil {
			return nil, err
		}
		return dto.KioskVisitor(visitor), nil
	})
	r.Register("visitor.checkOut", Public, func(call *Call) (any, error) {
		in, err := Input[dto.VisitorIDRequest](call)
		if err != nil {
			return nil, err
		}
		visitor, err := visitors.CheckOut(call.Context(), in.VisitorID, nil)
		if err != nil {
			return nil, err
		}
		return dto.KioskVisitor(visitor), nil
	})
	r.Register("visitor.respond", Public, func(call *Call) (any, error) {
		in, err := Input[dto.RespondRequest](call)
		if err != nil {
			return nil, err
		}
		result, err := visitors.Respond(call.Context(), in.Token, in.Action)
		if err != nil {
			return nil, err
		}
		return dto.Respond(result), nil
	})
	r.Register("visitor.verifyToken", Public, func(call *Call) (any, error) {
		in, err := Input[dto.TokenRequest](call)
		if err != nil {
			return nil, err
		}
		info, err := visitors.VerifyToken(call.Context(), in.Token)
		if err != nil {
			return nil, err
		}
		return dto.TokenInfo(info), nil
	})
	r.Register("visitor.list", frontDesk, func(call *Call) (any, error) {
		in, err := Input[dto.VisitorListRequest](call)
		if err != nil {
			return nil, err
		}
		items, err := visitors.List(call.Context(), call.Staff, in.Filter())
		if err != nil {
			return nil, err
		}
		return dto.Visitors(items), nil
	})
	r.Register("visitor.get", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.VisitorIDRequest](call)
		if err != nil {
			return nil, err
		}
		visitor, err := visitors.Get(call.Context(), call.Staff, in.VisitorID)
		if err != nil {
			return nil, err
		}
		return dto.Visitor(visitor), nil
	})
	r.Register("visitor.pendingCount", Authed, func(call *Call) (any, error) {
		count, err := visitors.PendingCount(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.CountResponse{Count: count}, nil
	})
	r.Register("visitor.respondAsHost", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.RespondAsHostRequest](call)
		if err != nil {
			return nil, err
		}
		result, err := visitors.RespondAsHost(call.Context(), call.Staff, in.VisitorID, in.Action)
		if err != nil {
			return nil, err
		}
		return dto.Respond(result), nil
	})
	r.Register("visitor.checkOutByStaff", frontDesk, func(call *Call) (any, error) {
		in, err := Input[dto.VisitorIDRequest](call)
		if err != nil {
			return nil, err
		}
		visitor, err := visitors.CheckOut(call.Context(), in.VisitorID, call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.Visitor(visitor), nil
	})
	r.Register("visitor.logs", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.VisitorIDRequest](call)
		if err != nil {
			return nil, err
		}
		logs, err := visitors.Logs(call.Context(), call.Staff, in.VisitorID)
		if err != nil {
			return nil, err
		}
		return dto.CheckInLogs(logs), nil
	})
}

func registerStaff(r *Router, staff *service.StaffService) {
	r.Register("staff.me", Authed, func(call *Call) (any, error) {
		me, err := staff.Me(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.Staff(me), nil
	})
	r.Register("staff.list", adminOnly, func(call *Call) (any, error) {
		in, err := Input[dto.StaffListRequest](call)
		if err != nil {
			return nil, err
		}
		items, err := staff.List(call.Context(), call.Staff, service.StaffListFilters{
			Roles:  in.Roles,
			Active: in.Active,
			Search: in.Search,
			Limit:  in.Limit,
			Offset: in.Offset,
		})
		if err != nil {
			return nil, err
		}
		return dto.StaffList(items), nil
	})
	r.Register("staff.create", adminOnly, func(call *Call) (any, error) {
		in, err := Input[dto.StaffCreateRequest](call)
		if err != nil {
			return nil, err
		}
		created, err := staff.Create(call.Context(), call.Staff, in.Input())
		if err != nil {
			return nil, err
		}
		return dto.Staff(created), nil
	})
	r.Register("staff.updateRole", adminOnly, func(call *Call) (any, error) {
		in, err := Input[dto.UpdateRoleRequest](call)
		if err != nil {
			return nil, err
		}
		updated, err := staff.UpdateRole(call.Context(), call.Staff, in.StaffID, in.Role)
		if err != nil {
			return nil, err
		}
		return dto.Staff(updated), nil
	})
	r.Register("staff.deactivate", adminOnly, func(call *Call) (any, error) {
		in, err := Input[dto.StaffIDRequest](call)
		if err != nil {
			return nil, err
		}
		updated, err := staff.Deactivate(call.Context(), call.Staff, in.StaffID)
		if err != nil {
			return nil, err
		}
		return dto.Staff(updated), nil
	})
	r.Register("staff.hosts", Public, func(call *Call) (any, error) {
		in, err := Input[dto.OrgSlugRequest](call)
		if err != nil {
			return nil, err
		}
		hosts, err := staff.Hosts(call.Context(), in.OrgSlug)
		if err != nil {
			return nil, err
		}
		return dto.Hosts(hosts), nil
	})
}

func registerEmployee(r *Router, employees *service.EmployeeService) {
	r.Register("employee.dashboard", Authed, func(call *Call) (any, error) {
		dashboard, err := employees.Dashboard(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.EmployeeDashboard(dashboard), nil
	})
}

func registerTicket(r *Router, tickets *service.TicketService) {
	r.Register("ticket.create", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.CreateTicketRequest](call)
		if err != nil {
			return nil, err
		}
		ticket, err := tickets.Create(call.Context(), call.Staff, in.Input())
		if err != nil {
			return nil, err
		}
		return dto.Ticket(ticket), nil
	})
	r.Register("ticket.list", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.TicketListRequest](call)
		if err != nil {
			return nil, err
		}
		items, err := tickets.List(call.Context(), call.Staff, in.Filter())
		if err != nil {
			return nil, err
		}
		return dto.Tickets(items), nil
	})
	r.Register("ticket.get", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.TicketIDRequest](call)
		if err != nil {
			return nil, err
		}
		ticket, err := tickets.Get(call.Context(), call.Staff, in.TicketID)
		if err != nil {
			return nil, err
		}
		return dto.Ticket(ticket), nil
	})
	r.Register("ticket.messages", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.TicketMessagesRequest](call)
		if err != nil {
			return nil, err
		}
		messages, err := tickets.Messages(call.Context(), call.Staff, in.TicketID, in.Since)
		if err != nil {
			return nil, err
		}
		return dto.TicketMessages(messages), nil
	})
	r.Register("ticket.addMessage", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.CreateMessageRequest](call)
		if err != nil {
			return nil, err
		}
		message, err := tickets.AddMessage(call.Context(), call.Staff, in.TicketID, in.Body, in.Internal)
		if err != nil {
			return nil, err
		}
		return dto.TicketMessage(message), nil
	})
	// The service also lets a requester close their resolved ticket.
	r.Register("ticket.updateStatus", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.UpdateTicketStatusRequest](call)
		if err != nil {
			return nil, err
		}
		ticket, err := tickets.UpdateStatus(call.Context(), call.Staff, in.TicketID, in.Status)
		if err != nil {
			return nil, err
		}
		return dto.Ticket(ticket), nil
	})
	r.Register("ticket.assign", helpdesk, func(call *Call) (any, error) {
		in, err := Input[dto.AssignTicketRequest](call)
		if err != nil {
			return nil, err
		}
		ticket, err := tickets.Assign(call.Context(), call.Staff, in.TicketID, in.AssigneeID)
		if err != nil {
			return nil, err
		}
		return dto.Ticket(ticket), nil
	})
	r.Register("ticket.updatePriority", helpdesk, func(call *Call) (any, error) {
		in, err := Input[dto.UpdateTicketPriorityRequest](call)
		if err != nil {
			return nil, err
		}
		ticket, err := tickets.UpdatePriority(call.Context(), call.Staff, in.TicketID, in.Priority)
		if err != nil {
			return nil, err
		}
		return dto.Ticket(ticket), nil
	})
}

func registerProject(r *Router, projects *service.ProjectService) {
	r.Register("project.create", helpdesk, func(call *Call) (any, error) {
		in, err := Input[dto.ProjectCreateRequest](call)
		if err != nil {
			return nil, err
		}
		project, err := projects.Create(call.Context(), call.Staff, in.Input())
		if err != nil {
			return nil, err
		}
		return dto.Project(project), nil
	})
	r.Register("project.list", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.ProjectListRequest](call)
		if err != nil {
			return nil, err
		}
		items, err := projects.List(call.Context(), call.Staff, service.ProjectListFilter{
			OwnerStaffID: in.OwnerStaffID,
			Statuses:     in.Status,
			Limit:        in.Limit,
			Offset:       in.Offset,
		})
		if err != nil {
			return nil, err
		}
		return dto.Projects(items), nil
	})
	r.Register("project.get", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.ProjectIDRequest](call)
		if err != nil {
			return nil, err
		}
		project, err := projects.Get(call.Context(), call.Staff, in.ProjectID)
		if err != nil {
			return nil, err
		}
		return dto.Project(project), nil
	})
	r.Register("project.update", helpdesk, func(call *Call) (any, error) {
		in, err := Input[dto.ProjectUpdateRequest](call)
		if err != nil {
			return nil, err
		}
		project, err := projects.Update(call.Context(), call.Staff, in.ProjectID, in.Input())
		if err != nil {
			return nil, err
		}
		return dto.Project(project), nil
	})
}

func registerNotification(r *Router, notifications *service.NotificationService) {
	r.Register("notification.list", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.NotificationListRequest](call)
		if err != nil {
			return nil, err
		}
		items, err := notifications.List(call.Context(), call.Staff, in.UnreadOnly, in.Limit)
		if err != nil {
			return nil, err
		}
		return dto.Notifications(items), nil
	})
	r.Register("notification.unreadCount", Authed, func(call *Call) (any, error) {
		count, err := notifications.UnreadCount(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.CountResponse{Count: count}, nil
	})
	r.Register("notification.markRead", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.NotificationIDRequest](call)
		if err != nil {
			return nil, err
		}
		if err := notifications.MarkRead(call.Context(), call.Staff, in.NotificationID); err != nil {
			return nil, err
		}
		return dto.SuccessResponse{Success: true}, nil
	})
	r.Register("notification.markAllRead", Authed, func(call *Call) (any, error) {
		updated, err := notifications.MarkAllRead(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.UpdatedResponse{Updated: updated}, nil
	})
}

func registerMeeting(r *Router, meetings *service.MeetingService) {
	r.Register("meeting.create", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.MeetingCreateRequest](call)
		if err != nil {
			return nil, err
		}
		meeting, err := meetings.Create(call.Context(), call.Staff, in.Input())
		if err != nil {
			return nil, err
		}
		return dto.Meeting(meeting), nil
	})
	r.Register("meeting.list", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.MeetingListRequest](call)
		if err != nil {
			return nil, err
		}
		items, err := meetings.List(call.Context(), call.Staff, in.From, in.Limit)
		if err != nil {
			return nil, err
		}
		return dto.Meetings(items), nil
	})
	r.Register("meeting.cancel", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.MeetingIDRequest](call)
		if err != nil {
			return nil, err
		}
		meeting, err := meetings.Cancel(call.Context(), call.Staff, in.MeetingID)
		if err != nil {
			return nil, err
		}
		return dto.Meeting(meeting), nil
	})
	r.Register("meeting.calendarStatus", Authed, func(call *Call) (any, error) {
		status, err := meetings.CalendarStatus(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.CalendarStatus(status), nil
	})
	r.Register("meeting.connectUrl", Authed, func(call *Call) (any, error) {
		in, err := Input[dto.CalendarProviderRequest](call)
		if err != nil {
			return nil, err
		}
		url, err := meetings.ConnectURL(call.Context(), call.Staff, in.Provider)
		if err != nil {
			return nil, err
		}
		return dto.URLResponse{URL: url}, nil
	})
}

func registerAnalytics(r *Router, analytics *service.AnalyticsService) {
	r.Register("analytics.overview", frontDesk, func(call *Call) (any, error) {
		in, err := Input[dto.DateRangeRequest](call)
		if err != nil {
			return nil, err
		}
		report, err := analytics.Overview(call.Context(), call.Staff, in.From, in.To)
		if err != nil {
			return nil, err
		}
		return dto.Overview(report), nil
	})
	r.Register("analytics.visitors", frontDesk, func(call *Call) (any, error) {
		in, err := Input[dto.DateRangeRequest](call)
		if err != nil {
			return nil, err
		}
		report, err := analytics.Visitors(call.Context(), call.Staff, in.From, in.To)
		if err != nil {
			return nil, err
		}
		return dto.VisitorAnalytics(report), nil
	})
	r.Register("analytics.traffic", frontDesk, func(call *Call) (any, error) {
		in, err := Input[dto.DateRangeRequest](call)
		if err != nil {
			return nil, err
		}
		report, err := analytics.Traffic(call.Context(), call.Staff, in.From, in.To)
		if err != nil {
			return nil, err
		}
		return dto.Traffic(report), nil
	})
}

func registerOrganization(r *Router, orgs *service.OrganizationService) {
	r.Register("organization.get", Authed, func(call *Call) (any, error) {
		org, err := orgs.Get(call.Context(), call.Staff)
		if err != nil {
			return nil, err
		}
		return dto.Organization(org), nil
	})
	r.Register("organization.update", adminOnly, func(call *Call) (any, error) {
		in, err := Input[dto.OrganizationUpdateRequest](call)
		if err != nil {
			return nil, err
		}
		org, err := orgs.Update(call.Context(), call.Staff, service.OrganizationUpdate{
			LogoURL:  in.LogoURL,
			Timezone: in.Timezone,
		})
		if err != nil {
			return nil, err
		}
		return dto.Organization(org), nil
	})
	r.Register("organization.public", Public, func(call *Call) (any, error) {
		in, err := Input[dto.OrgSlugRequest](call)
		if err != nil {
			return nil, err
		}
		org, err := orgs.Public(call.Context(), in.OrgSlug)
		if err != nil {
			return nil, err
		}
		return dto.PublicOrganization(org), nil
	})
}
