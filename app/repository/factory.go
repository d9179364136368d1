package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetProcessorRepository returns the processor repository instance
func (f *Factory) GetProcessorRepository() ProcessorRepository {
	return f.GetRepositories().Processor
}

// GetFeePolicyRepository returns the fee policy repository instance
func (f *Factory) GetFeePolicyRepository() FeePolicyRepository {
	return f.GetRepositories().FeePolicy
}

// GetTransactionRepository returns the transaction repository instance
func (f *Factory) GetTransactionRepository() TransactionRepository {
	return f.GetRepositories().Transaction
}

// GetWebhookLogRepository returns the webhook log repository instance
func (f *Factory) GetWebhookLogRepository() WebhookLogRepository {
	return f.GetRepositories().WebhookLog
}

// GetPledgeRepository returns the pledge repository instance
func (f *Factory) GetPledgeRepository() PledgeRepository {
	return f.GetRepositories().Pledge
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
