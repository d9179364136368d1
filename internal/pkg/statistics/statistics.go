package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/internal/pkg/cache"
	"github.com/donorops/donorops/internal/pkg/database"
)

const (
	CacheKeyTransactionsTotal = "statistics:transactions:total"
	CacheKeyTransactionsDaily = "statistics:transactions:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyAmountTotal       = "statistics:transactions:amount"
	CacheExpiration           = 30 * time.Minute
)

// Data holds the aggregate numbers shown on the operations dashboard.
type Data struct {
	TodayTransactions int
	TotalTransactions int
	TotalAmount       string
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached aggregates are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached aggregates when they are stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recomputes all aggregates and writes them to the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalTransactions int64
	if err := db.Model(&models.Transaction{}).Count(&totalTransactions).Error; err != nil {
		log.Printf("Error counting transactions: %v", err)
		return err
	}

	var todayTransactions int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Transaction{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayTransactions).Error; err != nil {
		log.Printf("Error counting today's transactions: %v", err)
		return err
	}

	var totalAmount decimal.Decimal
	if err := db.Model(&models.Transaction{}).Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalAmount).Error; err != nil {
		log.Printf("Error summing transaction amounts: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyTransactionsTotal, strconv.FormatInt(totalTransactions, 10), CacheExpiration); err != nil {
		log.Printf("Error caching transaction total: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyTransactionsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayTransactions, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's transactions: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyAmountTotal, totalAmount.StringFixed(2), CacheExpiration); err != nil {
		log.Printf("Error caching transaction amount: %v", err)
		return err
	}

	return nil
}

// GetTotalTransactions returns the total transaction count, cache first.
func GetTotalTransactions() int {
	val, err := cache.Get(CacheKeyTransactionsTotal)
	if err != nil {
		var count int64
		if err := database.GetDB().Model(&models.Transaction{}).Count(&count).Error; err != nil {
			log.Printf("Error counting transactions: %v", err)
			return 0
		}
		if err := cache.Set(CacheKeyTransactionsTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching transaction total: %v", err)
		}
		return int(count)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return count
}

// GetTodayTransactions returns today's transaction count, cache first.
func GetTodayTransactions() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyTransactionsDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		var count int64
		if err := database.GetDB().Model(&models.Transaction{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's transactions: %v", err)
			return 0
		}
		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's transactions: %v", err)
		}
		return int(count)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return count
}

// GetTotalAmount returns the completed transaction volume as a display string.
func GetTotalAmount() string {
	val, err := cache.Get(CacheKeyAmountTotal)
	if err != nil {
		if err := UpdateStatisticsCache(); err != nil {
			return "0.00"
		}
		val, err = cache.Get(CacheKeyAmountTotal)
		if err != nil {
			return "0.00"
		}
	}
	return val
}

// GetStatistics returns all dashboard aggregates, refreshing the cache when
// stale.
func GetStatistics() Data {
	UpdateCacheIfNeeded()

	return Data{
		TodayTransactions: GetTodayTransactions(),
		TotalTransactions: GetTotalTransactions(),
		TotalAmount:       GetTotalAmount(),
	}
}
