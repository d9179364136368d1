package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultFeePolicy is applied when no policy rows match at all: the common
// card-network rate with the organization absorbing the fee.
var DefaultFeePolicy = models.FeePolicy{
	PaymentType:    models.PaymentTypeAll,
	PolicyType:     models.PolicyOrgAbsorbs,
	FeePercentage:  decimal.NewFromFloat(2.9),
	FeeFixedAmount: decimal.NewFromFloat(0.30),
	IsActive:       true,
}

const comparisonCacheTTL = 5 * time.Minute

// ComparisonCache is the small cache surface the fee engine needs. A nil
// cache disables comparison caching.
type ComparisonCache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
}

// FeeEngine resolves fee policies and computes fee breakdowns.
type FeeEngine struct {
	policies   repository.FeePolicyRepository
	processors repository.ProcessorRepository
	cache      ComparisonCache
}

func NewFeeEngine(policies repository.FeePolicyRepository, processors repository.ProcessorRepository, cache ComparisonCache) *FeeEngine {
	return &FeeEngine{policies: policies, processors: processors, cache: cache}
}

// GetFeePolicy resolves the effective policy for a processor and payment
// type: exact match first, then the processor's "all" row, then the named
// default.
func (e *FeeEngine) GetFeePolicy(processorID uint, paymentType string) (*models.FeePolicy, error) {
	p, err := e.policies.GetPolicy(processorID, paymentType)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p, err = e.policies.GetPolicy(processorID, models.PaymentTypeAll)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	def := DefaultFeePolicy
	def.ProcessorID = processorID
	return &def, nil
}

// CalculateFee computes the fee breakdown for one payment. Every monetary
// intermediate is rounded to 2 decimals half-up so repeated arithmetic cannot
// drift.
func (e *FeeEngine) CalculateFee(processorID uint, amount decimal.Decimal, paymentType string) (*FeeResult, error) {
	policy, err := e.GetFeePolicy(processorID, paymentType)
	if err != nil {
		return nil, err
	}
	return applyPolicy(policy, amount), nil
}

// applyPolicy performs the fee arithmetic for one resolved policy.
func applyPolicy(policy *models.FeePolicy, amount decimal.Decimal) *FeeResult {
	amount = amount.Round(2)
	hundred := decimal.NewFromInt(100)
	fee := amount.Mul(policy.FeePercentage).Div(hundred).Add(policy.FeeFixedAmount).Round(2)

	result := &FeeResult{
		Amount:    amount,
		FeeAmount: fee,
	}

	switch policy.PolicyType {
	case models.PolicyDonorPays:
		result.NetAmount = amount
		result.TotalAmount = amount.Add(fee).Round(2)
		result.FeePaidBy = models.FeePaidByDonor
	case models.PolicyHybrid:
		// Split so the two halves always reconstruct the full fee even when
		// the fee is an odd number of cents.
		donorShare := fee.Div(decimal.NewFromInt(2)).Round(2)
		orgShare := fee.Sub(donorShare)
		result.NetAmount = amount.Sub(orgShare).Round(2)
		result.TotalAmount = amount.Add(donorShare).Round(2)
		result.FeePaidBy = models.FeePaidByShared
	case models.PolicyIncentivize:
		// Same arithmetic as org_absorbs; the incentive message is what
		// changes the donor-facing presentation.
		result.NetAmount = amount.Sub(fee).Round(2)
		result.TotalAmount = amount
		result.FeePaidBy = models.FeePaidByOrg
		result.IncentiveMessage = policy.IncentiveMessage
	default:
		// org_absorbs and any unrecognized policy type.
		result.NetAmount = amount.Sub(fee).Round(2)
		result.TotalAmount = amount
		result.FeePaidBy = models.FeePaidByOrg
	}

	return result
}

// GetFeeComparison computes a fee breakdown for every active processor of
// the payment type and orders it so the option leaving the organization the
// most money comes first. Ties keep processor display order.
func (e *FeeEngine) GetFeeComparison(amount decimal.Decimal, paymentType string) ([]FeeComparisonRow, error) {
	cacheKey := fmt.Sprintf("fees:compare:%s:%s", paymentType, amount.Round(2).String())
	if e.cache != nil {
		if cached, err := e.cache.Get(cacheKey); err == nil && cached != "" {
			var rows []FeeComparisonRow
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				return rows, nil
			}
		}
	}

	processors, err := e.processors.GetActive(paymentType)
	if err != nil {
		return nil, err
	}

	rows := make([]FeeComparisonRow, 0, len(processors))
	for _, p := range processors {
		policy, err := e.GetFeePolicy(p.ID, paymentType)
		if err != nil {
			return nil, err
		}
		fee := applyPolicy(policy, amount)
		rows = append(rows, FeeComparisonRow{
			ProcessorID:      p.ID,
			ProcessorName:    p.ProcessorName,
			ProcessorType:    p.ProcessorType,
			PolicyType:       policy.PolicyType,
			FeeAmount:        fee.FeeAmount,
			NetToOrg:         fee.NetAmount,
			DonorPays:        fee.TotalAmount,
			FeePaidBy:        fee.FeePaidBy,
			IncentiveMessage: fee.IncentiveMessage,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].NetToOrg.GreaterThan(rows[j].NetToOrg)
	})

	if e.cache != nil {
		if encoded, err := json.Marshal(rows); err == nil {
			if err := e.cache.Set(cacheKey, string(encoded), comparisonCacheTTL); err != nil {
				log.Printf("fee comparison cache write failed: %v", err)
			}
		}
	}
	return rows, nil
}
