package worker

import (
	"github.com/Ignatius32/asistencia-informatica-crub/internal/service"
)

// StartNotificationWorker registers the mail notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
