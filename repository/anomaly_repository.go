package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// AnomalyRepository persists webhook events that could not be reconciled
type AnomalyRepository struct {
	db *gorm.DB
}

// NewAnomalyRepository creates a new anomaly repository
func NewAnomalyRepository(db *gorm.DB) *AnomalyRepository {
	return &AnomalyRepository{db: db}
}

// RecordAnomaly stores an anomaly for operator review
func (r *AnomalyRepository) RecordAnomaly(ctx context.Context, anomaly *models.WebhookAnomaly) error {
	if err := r.db.WithContext(ctx).Create(anomaly).Error; err != nil {
		return fmt.Errorf("failed to record webhook anomaly: %w", err)
	}
	return nil
}

// ListAnomalies returns the most recent anomalies, optionally only unreviewed ones
func (r *AnomalyRepository) ListAnomalies(ctx context.Context, limit int, unreviewedOnly bool) ([]models.WebhookAnomaly, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if unreviewedOnly {
		q = q.Where("reviewed_at IS NULL")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var anomalies []models.WebhookAnomaly
	if err := q.Find(&anomalies).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook anomalies: %w", err)
	}
	return anomalies, nil
}
