package repository

import (
	"github.com/donorops/donorops/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProcessorRepository defines read access to configured payment processors.
// Processor rows are owned by the admin configuration surface; the payment
// core treats them as read-only apart from the counter flush.
type ProcessorRepository interface {
	Create(p *models.PaymentProcessor) error
	GetByID(id uint) (*models.PaymentProcessor, error)
	GetActive(paymentType string) ([]models.PaymentProcessor, error)
	GetPreferred() (*models.PaymentProcessor, error)
	Count() (int64, error)
}

// FeePolicyRepository defines access to fee policy rows.
type FeePolicyRepository interface {
	GetPolicy(processorID uint, paymentType string) (*models.FeePolicy, error)
	CreatePolicy(p *models.FeePolicy) error
	ListByProcessor(processorID uint) ([]models.FeePolicy, error)
}

// TransactionRepository defines access to the append-only payment ledger.
// There is intentionally no Update or Delete.
type TransactionRepository interface {
	Create(tx *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	GetByReference(reference string) (*models.Transaction, error)
	GetByProcessorTransactionID(processorTxID string) (*models.Transaction, error)
	List(offset, limit int) ([]models.Transaction, error)
	ListByPledge(pledgeID uint) ([]models.Transaction, error)
	Count() (int64, error)
}

// WebhookLogRepository defines access to the append-only webhook audit trail.
type WebhookLogRepository interface {
	Create(entry *models.WebhookLog) error
	ListByProcessor(processorType string, offset, limit int) ([]models.WebhookLog, error)
	Count() (int64, error)
}

// PledgeRepository defines access to pledge rows. RecordPayment applies the
// paid-to-date increment as a single atomic UPDATE.
type PledgeRepository interface {
	Create(p *models.Pledge) error
	GetByID(id uint) (*models.Pledge, error)
	RecordPayment(id uint, amount decimal.Decimal) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Processor   ProcessorRepository
	FeePolicy   FeePolicyRepository
	Transaction TransactionRepository
	WebhookLog  WebhookLogRepository
	Pledge      PledgeRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Processor:   NewProcessorRepository(db),
		FeePolicy:   NewFeePolicyRepository(db),
		Transaction: NewTransactionRepository(db),
		WebhookLog:  NewWebhookLogRepository(db),
		Pledge:      NewPledgeRepository(db),
	}
}
