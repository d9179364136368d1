package repository

import (
	"github.com/donorops/donorops/app/models"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *transactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("reference = ?", reference).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) GetByProcessorTransactionID(processorTxID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("processor_transaction_id = ?", processorTxID).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) List(offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Order("transaction_date DESC, id DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) ListByPledge(pledgeID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("pledge_id = ?", pledgeID).Order("transaction_date ASC").Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).Count(&count).Error
	return count, err
}
