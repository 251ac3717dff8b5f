package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the event
// dispatcher. Events are handled synchronously on the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
