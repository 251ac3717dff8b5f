package dto

import (
	"time"

	"github.com/spec-kit/frontdesk/internal/domain"
)

// NotificationListRequest filters the bell menu.
type NotificationListRequest struct {
	UnreadOnly bool `json:"unreadOnly"`
	Limit      int  `json:"limit" validate:"omitempty,min=1,max=100"`
}

// NotificationIDRequest addresses one notification.
type NotificationIDRequest struct {
	NotificationID string `json:"notificationId" validate:"required"`
}

// NotificationResponse is the wire form of a notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      *string                 `json:"link"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Notifications converts a slice.
func Notifications(items []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.ReadAt != nil,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

// UpdatedResponse reports how many rows changed.
type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

// SuccessResponse acknowledges a command.
type SuccessResponse struct {
	Success bool `json:"success"`
}
