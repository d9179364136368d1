package repository

import (
	"github.com/donorops/donorops/app/models"
	"gorm.io/gorm"
)

type processorRepository struct {
	db *gorm.DB
}

// NewProcessorRepository creates a new processor repository instance
func NewProcessorRepository(db *gorm.DB) ProcessorRepository {
	return &processorRepository{db: db}
}

func (r *processorRepository) Create(p *models.PaymentProcessor) error {
	return r.db.Create(p).Error
}

func (r *processorRepository) GetByID(id uint) (*models.PaymentProcessor, error) {
	var p models.PaymentProcessor
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActive returns active processors ordered by display_order. A concrete
// payment type filters out processors that have an active policy explicitly
// disabled for it; passing "" or "all" returns every active processor.
func (r *processorRepository) GetActive(paymentType string) ([]models.PaymentProcessor, error) {
	var processors []models.PaymentProcessor
	q := r.db.Where("is_active = ?", true).Order("display_order ASC, id ASC")
	if paymentType != "" && paymentType != models.PaymentTypeAll {
		q = q.Where(
			"id NOT IN (?)",
			r.db.Model(&models.FeePolicy{}).
				Select("processor_id").
				Where("payment_type = ? AND is_active = ?", paymentType, false),
		)
	}
	err := q.Find(&processors).Error
	return processors, err
}

func (r *processorRepository) GetPreferred() (*models.PaymentProcessor, error) {
	var p models.PaymentProcessor
	err := r.db.Where("is_active = ? AND is_preferred = ?", true, true).
		Order("display_order ASC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *processorRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentProcessor{}).Count(&count).Error
	return count, err
}
