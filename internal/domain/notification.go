package domain

import "time"

// NotificationType groups in-app notifications.
type NotificationType string

const (
	NotificationVisitorArrived   NotificationType = "VISITOR_ARRIVED"
	NotificationVisitorResponded NotificationType = "VISITOR_RESPONDED"
	NotificationTicketCreated    NotificationType = "TICKET_CREATED"
	NotificationTicketUpdated    NotificationType = "TICKET_UPDATED"
	NotificationTicketMessage    NotificationType = "TICKET_MESSAGE"
	NotificationMeeting          NotificationType = "MEETING"
)

// Notification is a badge item shown to a staff member.
type Notification struct {
	ID             string
	OrganizationID string
	StaffID        string
	Type           NotificationType
	Title          string
	Message        string
	Link           *string
	ReadAt         *time.Time
	CreatedAt      time.Time
}
