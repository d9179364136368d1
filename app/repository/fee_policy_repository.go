package repository

import (
	"errors"
	"fmt"

	"github.com/donorops/donorops/app/models"
	"gorm.io/gorm"
)

type feePolicyRepository struct {
	db *gorm.DB
}

// NewFeePolicyRepository creates a new fee policy repository instance
func NewFeePolicyRepository(db *gorm.DB) FeePolicyRepository {
	return &feePolicyRepository{db: db}
}

// GetPolicy returns the active policy for the exact (processor, payment type)
// pair. Fallback to the "all" row is the fee engine's job, not the store's.
func (r *feePolicyRepository) GetPolicy(processorID uint, paymentType string) (*models.FeePolicy, error) {
	var p models.FeePolicy
	err := r.db.
		Where("processor_id = ? AND payment_type = ? AND is_active = ?", processorID, paymentType, true).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *feePolicyRepository) CreatePolicy(p *models.FeePolicy) error {
	if !models.IsKnownPaymentType(p.PaymentType) {
		return fmt.Errorf("unknown payment type: %s", p.PaymentType)
	}

	var existing models.FeePolicy
	err := r.db.
		Where("processor_id = ? AND payment_type = ?", p.ProcessorID, p.PaymentType).
		First(&existing).Error
	if err == nil {
		return fmt.Errorf("fee policy for processor %d and payment type %s already exists", p.ProcessorID, p.PaymentType)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(p).Error
}

func (r *feePolicyRepository) ListByProcessor(processorID uint) ([]models.FeePolicy, error) {
	var policies []models.FeePolicy
	err := r.db.Where("processor_id = ?", processorID).Order("payment_type ASC").Find(&policies).Error
	return policies, err
}
