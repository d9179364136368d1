package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/donorops/donorops/app/models"
)

type fakeTransactionRepo struct {
	created   []*models.Transaction
	createErr error
	existing  map[string]*models.Transaction
}

func (f *fakeTransactionRepo) Create(tx *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, tx)
	return nil
}

func (f *fakeTransactionRepo) GetByID(id uint) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) GetByReference(reference string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) GetByProcessorTransactionID(processorTxID string) (*models.Transaction, error) {
	if tx, ok := f.existing[processorTxID]; ok {
		return tx, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) List(offset, limit int) ([]models.Transaction, error) { return nil, nil }

func (f *fakeTransactionRepo) ListByPledge(pledgeID uint) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeTransactionRepo) Count() (int64, error) { return int64(len(f.created)), nil }

type fakeAdapter struct {
	charges []*ChargeRequest
	result  *ChargeResult
	err     error
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	f.charges = append(f.charges, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCredentials struct {
	creds map[uint]map[string]string
	err   error
}

func (f *fakeCredentials) GetProcessorConfig(processorID uint) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.creds[processorID]; ok {
		return c, nil
	}
	return map[string]string{}, nil
}

type fakePledges struct {
	calls []struct {
		ID     uint
		Amount decimal.Decimal
	}
	err error
}

func (f *fakePledges) RecordPayment(pledgeID uint, amount decimal.Decimal) error {
	f.calls = append(f.calls, struct {
		ID     uint
		Amount decimal.Decimal
	}{pledgeID, amount})
	return f.err
}

type fakeReceipts struct {
	sent []*models.Transaction
}

func (f *fakeReceipts) SendReceipt(tx *models.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

type managerFixture struct {
	manager      *Manager
	adapter      *fakeAdapter
	transactions *fakeTransactionRepo
	pledges      *fakePledges
	receipts     *fakeReceipts
	policies     *fakePolicyRepo
}

func newManagerFixture(t *testing.T, policyType string) *managerFixture {
	t.Helper()

	processors := &fakeProcessorRepo{processors: []models.PaymentProcessor{
		{ID: 1, ProcessorName: "Stripe", ProcessorType: models.ProcessorTypeStripe, IsActive: true},
		{ID: 2, ProcessorName: "Old Gateway", ProcessorType: "authorize_net", IsActive: true},
		{ID: 3, ProcessorName: "Disabled", ProcessorType: models.ProcessorTypeStripe, IsActive: false},
	}}

	policies := &fakePolicyRepo{policies: map[string]*models.FeePolicy{}}
	_ = policies.CreatePolicy(newTestPolicy(1, models.PaymentTypeAll, policyType))

	adapter := &fakeAdapter{result: &ChargeResult{
		TransactionID: "pi_123",
		Status:        models.TransactionStatusCompleted,
		RawResponse:   `{"id":"pi_123"}`,
	}}

	registry := NewAdapterRegistry(&fakeCredentials{creds: map[uint]map[string]string{
		1: {"secret_key": "sk_test_abc"},
	}})
	registry.Register(models.ProcessorTypeStripe, func(creds map[string]string) (PaymentAdapter, error) {
		return adapter, nil
	})

	transactions := &fakeTransactionRepo{}
	pledges := &fakePledges{}
	receipts := &fakeReceipts{}

	engine := NewFeeEngine(policies, processors, nil)
	manager := NewManager(processors, transactions, engine, registry, pledges, receipts)

	return &managerFixture{
		manager:      manager,
		adapter:      adapter,
		transactions: transactions,
		pledges:      pledges,
		receipts:     receipts,
		policies:     policies,
	}
}

func validRequest() *PaymentRequest {
	return &PaymentRequest{
		Amount:        decimal.NewFromFloat(100.00),
		PaymentType:   models.PaymentTypeDonation,
		Email:         "donor@example.org",
		Currency:      "usd",
		PaymentMethod: "pm_card_visa",
	}
}

func TestProcessPaymentOrgAbsorbs(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)

	tx, err := fix.manager.ProcessPayment(context.Background(), 1, validRequest())
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}

	if len(fix.adapter.charges) != 1 {
		t.Fatalf("adapter charged %d times, want exactly 1", len(fix.adapter.charges))
	}
	if !fix.adapter.charges[0].Amount.Equal(decimal.NewFromFloat(100.00)) {
		t.Fatalf("charged %s, want the requested 100.00", fix.adapter.charges[0].Amount)
	}

	if tx.ProcessorTransactionID != "pi_123" {
		t.Fatalf("processor tx id = %q", tx.ProcessorTransactionID)
	}
	if !tx.FeeAmount.Equal(decimal.NewFromFloat(3.20)) {
		t.Fatalf("fee = %s, want 3.20", tx.FeeAmount)
	}
	if !tx.NetAmount.Equal(decimal.NewFromFloat(96.80)) {
		t.Fatalf("net = %s, want 96.80", tx.NetAmount)
	}
	if len(fix.transactions.created) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(fix.transactions.created))
	}
	if len(fix.receipts.sent) != 1 {
		t.Fatalf("receipts = %d, want 1", len(fix.receipts.sent))
	}
}

func TestProcessPaymentDonorPaysChargesTotal(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyDonorPays)

	_, err := fix.manager.ProcessPayment(context.Background(), 1, validRequest())
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}

	if len(fix.adapter.charges) != 1 {
		t.Fatalf("adapter charged %d times, want 1", len(fix.adapter.charges))
	}
	if !fix.adapter.charges[0].Amount.Equal(decimal.NewFromFloat(103.20)) {
		t.Fatalf("charged %s, want fee-inclusive 103.20", fix.adapter.charges[0].Amount)
	}
}

func TestProcessPaymentHybridChargesBaseAmount(t *testing.T) {
	// Only donor_pays rewrites the outbound charge; hybrid collects the donor
	// share through the recorded totals, not a bigger charge.
	fix := newManagerFixture(t, models.PolicyHybrid)

	_, err := fix.manager.ProcessPayment(context.Background(), 1, validRequest())
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if !fix.adapter.charges[0].Amount.Equal(decimal.NewFromFloat(100.00)) {
		t.Fatalf("charged %s, want base 100.00", fix.adapter.charges[0].Amount)
	}
}

func TestProcessPaymentAdapterFailureLeavesNoState(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)
	declined := errors.New("card_declined")
	fix.adapter.err = declined
	fix.adapter.result = nil

	tx, err := fix.manager.ProcessPayment(context.Background(), 1, validRequest())
	if !errors.Is(err, declined) {
		t.Fatalf("err = %v, want the adapter error verbatim", err)
	}
	if tx != nil {
		t.Fatal("expected no transaction on charge failure")
	}
	if len(fix.transactions.created) != 0 {
		t.Fatalf("ledger rows = %d, want 0 after failed charge", len(fix.transactions.created))
	}
	if len(fix.receipts.sent) != 0 {
		t.Fatal("receipt sent for a failed charge")
	}
}

func TestProcessPaymentStorageFailureAfterCharge(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)
	fix.transactions.createErr = errors.New("deadlock")

	tx, err := fix.manager.ProcessPayment(context.Background(), 1, validRequest())
	if !errors.Is(err, ErrStorageAfterCharge) {
		t.Fatalf("err = %v, want ErrStorageAfterCharge", err)
	}
	if tx == nil {
		t.Fatal("the charged transaction must come back even when storage fails")
	}
	if tx.ProcessorTransactionID != "pi_123" {
		t.Fatalf("returned tx id = %q, want the charged id", tx.ProcessorTransactionID)
	}
}

func TestProcessPaymentRecordsPledge(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)
	pledgeID := uint(7)
	req := validRequest()
	req.PledgeID = &pledgeID

	_, err := fix.manager.ProcessPayment(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if len(fix.pledges.calls) != 1 {
		t.Fatalf("pledge calls = %d, want 1", len(fix.pledges.calls))
	}
	if fix.pledges.calls[0].ID != 7 {
		t.Fatalf("pledge id = %d, want 7", fix.pledges.calls[0].ID)
	}
	if !fix.pledges.calls[0].Amount.Equal(decimal.NewFromFloat(100.00)) {
		t.Fatalf("pledge amount = %s, want the base 100.00", fix.pledges.calls[0].Amount)
	}
}

func TestProcessPaymentPledgeFailureDoesNotFailPayment(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)
	fix.pledges.err = errors.New("pledge gone")
	pledgeID := uint(7)
	req := validRequest()
	req.PledgeID = &pledgeID

	tx, err := fix.manager.ProcessPayment(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if tx == nil {
		t.Fatal("payment must succeed despite a pledge bookkeeping failure")
	}
}

func TestProcessPaymentUnknownProcessor(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)

	if _, err := fix.manager.ProcessPayment(context.Background(), 42, validRequest()); !errors.Is(err, ErrProcessorNotFound) {
		t.Fatalf("err = %v, want ErrProcessorNotFound", err)
	}
}

func TestProcessPaymentInactiveProcessor(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)

	if _, err := fix.manager.ProcessPayment(context.Background(), 3, validRequest()); !errors.Is(err, ErrProcessorNotFound) {
		t.Fatalf("err = %v, want ErrProcessorNotFound for inactive processor", err)
	}
	if len(fix.adapter.charges) != 0 {
		t.Fatal("inactive processor must never be charged")
	}
}

func TestProcessPaymentUnregisteredAdapterType(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)

	if _, err := fix.manager.ProcessPayment(context.Background(), 2, validRequest()); !errors.Is(err, ErrAdapterNotFound) {
		t.Fatalf("err = %v, want ErrAdapterNotFound", err)
	}
}

func TestProcessPaymentValidation(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)

	tests := []struct {
		name   string
		mutate func(*PaymentRequest)
	}{
		{"unknown payment type", func(r *PaymentRequest) { r.PaymentType = "bake_sale" }},
		{"bad email", func(r *PaymentRequest) { r.Email = "not-an-email" }},
		{"bad currency length", func(r *PaymentRequest) { r.Currency = "dollars" }},
		{"missing payment method", func(r *PaymentRequest) { r.PaymentMethod = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			if _, err := fix.manager.ProcessPayment(context.Background(), 1, req); err == nil {
				t.Fatal("expected validation error")
			}
			if len(fix.adapter.charges) != 0 {
				t.Fatal("invalid request reached the adapter")
			}
		})
	}
}

func TestProcessPaymentRejectsNonPositiveAmount(t *testing.T) {
	fix := newManagerFixture(t, models.PolicyOrgAbsorbs)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromFloat(-5)} {
		req := validRequest()
		req.Amount = amount
		if _, err := fix.manager.ProcessPayment(context.Background(), 1, req); err == nil {
			t.Fatalf("amount %s accepted, want error", amount)
		}
	}
}
