package notifications

import "github.com/gallerydash/activity-bot/internal/models"

// NotificationInterface defines the contract for operator notifications
type NotificationInterface interface {
	SendRunReport(report *models.RunReport) error
	SendAbortAlert(alert *models.AbortAlert) error
}
