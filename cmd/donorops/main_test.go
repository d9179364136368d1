package main

import (
	"testing"

	"gorm.io/gorm"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
	"github.com/donorops/donorops/internal/pkg/credentials"
)

type stubProcessorRepo struct {
	processors []models.PaymentProcessor
}

func (s *stubProcessorRepo) Create(p *models.PaymentProcessor) error { return nil }

func (s *stubProcessorRepo) GetByID(id uint) (*models.PaymentProcessor, error) {
	for i := range s.processors {
		if s.processors[i].ID == id {
			cp := s.processors[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProcessorRepo) GetActive(paymentType string) ([]models.PaymentProcessor, error) {
	var active []models.PaymentProcessor
	for _, p := range s.processors {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *stubProcessorRepo) GetPreferred() (*models.PaymentProcessor, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProcessorRepo) Count() (int64, error) { return int64(len(s.processors)), nil }

type stubTransactionRepo struct{}

func (s *stubTransactionRepo) Create(tx *models.Transaction) error { return nil }
func (s *stubTransactionRepo) GetByID(id uint) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubTransactionRepo) GetByReference(reference string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubTransactionRepo) GetByProcessorTransactionID(processorTxID string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubTransactionRepo) List(offset, limit int) ([]models.Transaction, error) {
	return nil, nil
}
func (s *stubTransactionRepo) ListByPledge(pledgeID uint) ([]models.Transaction, error) {
	return nil, nil
}
func (s *stubTransactionRepo) Count() (int64, error) { return 0, nil }

// Processor rows seeded by hand may carry mixed-case types. The registry and
// the webhook controller both look handlers up by the lowercased type, so
// setup has to key its maps the same way or the counter lookup silently
// misses.
func TestBuildWebhookRegistryNormalizesProcessorTypes(t *testing.T) {
	procs := &stubProcessorRepo{processors: []models.PaymentProcessor{
		{
			ID:             7,
			ProcessorType:  "Stripe",
			ProcessorName:  "Stripe Production",
			IsActive:       true,
			CredentialsEnc: `{"webhook_secret":"whsec_test"}`,
		},
	}}
	credStore, err := credentials.NewStore(procs, "unit-test-secret")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	repos := &repository.Repositories{
		Processor:   procs,
		Transaction: &stubTransactionRepo{},
	}

	registry, processorIDs := buildWebhookRegistry(repos, credStore)

	if _, ok := registry.Get("stripe"); !ok {
		t.Fatal("mixed-case processor row did not register a stripe handler")
	}
	if id, ok := processorIDs["stripe"]; !ok || id != 7 {
		t.Fatalf("processorIDs[stripe] = %d, %t; want 7, true", id, ok)
	}
	if _, ok := processorIDs["Stripe"]; ok {
		t.Fatal("processorIDs keyed by the raw stored type")
	}
}
