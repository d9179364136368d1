package repository

import (
	"github.com/donorops/donorops/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type pledgeRepository struct {
	db *gorm.DB
}

// NewPledgeRepository creates a new pledge repository instance
func NewPledgeRepository(db *gorm.DB) PledgeRepository {
	return &pledgeRepository{db: db}
}

func (r *pledgeRepository) Create(p *models.Pledge) error {
	return r.db.Create(p).Error
}

func (r *pledgeRepository) GetByID(id uint) (*models.Pledge, error) {
	var p models.Pledge
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// recordPaymentSQL increments paid-to-date and flips the status to fulfilled
// in one UPDATE so concurrent payments against the same pledge rely on the
// database's single-row atomicity instead of application locking. MySQL
// evaluates SET assignments left to right and later expressions read already
// assigned columns, so the status CASE must come after the amount_paid
// assignment and read the incremented column as-is.
const recordPaymentSQL = "UPDATE pledges SET " +
	"amount_paid = amount_paid + ?, " +
	"status = CASE WHEN amount_paid >= amount_pledged THEN ? ELSE status END " +
	"WHERE id = ?"

func (r *pledgeRepository) RecordPayment(id uint, amount decimal.Decimal) error {
	tx := r.db.Exec(recordPaymentSQL, amount, models.PledgeStatusFulfilled, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
