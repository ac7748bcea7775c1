package repository

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// Migrate creates or updates the leases, payments and webhook_anomalies tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Lease{}, &models.PaymentRecord{}, &models.WebhookAnomaly{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	slog.Info("[Repository] Schema migrated", "dialect", db.Dialector.Name())
	return nil
}
