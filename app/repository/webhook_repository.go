package repository

import (
	"github.com/donorops/donorops/app/models"
	"gorm.io/gorm"
)

type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new webhook log repository instance
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Create(entry *models.WebhookLog) error {
	return r.db.Create(entry).Error
}

func (r *webhookLogRepository) ListByProcessor(processorType string, offset, limit int) ([]models.WebhookLog, error) {
	var entries []models.WebhookLog
	q := r.db.Order("created_at DESC, id DESC").Offset(offset).Limit(limit)
	if processorType != "" {
		q = q.Where("processor_type = ?", processorType)
	}
	err := q.Find(&entries).Error
	return entries, err
}

func (r *webhookLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookLog{}).Count(&count).Error
	return count, err
}
