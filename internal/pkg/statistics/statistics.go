package statistics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/cache"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
)

const (
	CacheKeyUsersTotal   = "statistics:users:total"
	CacheKeyExportsMonth = "statistics:exports:month:%s" // Format with month YYYY-MM
	CacheKeyTrialsActive = "statistics:trials:active"
	CacheExpiration      = 30 * time.Minute
)

// StatisticsData holds the aggregate numbers shown on the admin dashboard.
type StatisticsData struct {
	TotalUsers   int
	MonthExports int
	ActiveTrials int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached numbers are stale.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Errorf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recomputes all statistics and stores them in the cache.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Errorf("Error counting total users: %v", err)
		return err
	}

	month := models.MonthYearKey(time.Now())
	var monthExports int64
	if err := db.Model(&models.PdfExport{}).Where("month_year = ?", month).Count(&monthExports).Error; err != nil {
		log.Errorf("Error counting exports for %s: %v", month, err)
		return err
	}

	var activeTrials int64
	if err := db.Model(&models.UserSettings{}).
		Where("trial_started_at IS NOT NULL AND trial_upgraded_at IS NULL AND plan = ?", "").
		Count(&activeTrials).Error; err != nil {
		log.Errorf("Error counting active trials: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsersTotal, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Errorf("Error caching total users: %v", err)
		return err
	}

	monthKey := fmt.Sprintf(CacheKeyExportsMonth, month)
	if err := cache.Set(monthKey, strconv.FormatInt(monthExports, 10), CacheExpiration); err != nil {
		log.Errorf("Error caching monthly exports: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyTrialsActive, strconv.FormatInt(activeTrials, 10), CacheExpiration); err != nil {
		log.Errorf("Error caching active trials: %v", err)
		return err
	}

	return nil
}

// GetTotalUsers returns the total number of registered users from cache or database.
func GetTotalUsers() int {
	val, err := cache.Get(CacheKeyUsersTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Errorf("Error counting total users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyUsersTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Errorf("Error caching total users: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetMonthExports returns the number of PDF exports recorded in the current month.
func GetMonthExports() int {
	month := models.MonthYearKey(time.Now())
	monthKey := fmt.Sprintf(CacheKeyExportsMonth, month)

	val, err := cache.Get(monthKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.PdfExport{}).Where("month_year = ?", month).Count(&count).Error; err != nil {
			log.Errorf("Error counting exports for %s: %v", month, err)
			return 0
		}

		if err := cache.Set(monthKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Errorf("Error caching monthly exports: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetActiveTrials returns the number of users currently in an unconverted trial.
func GetActiveTrials() int {
	val, err := cache.Get(CacheKeyTrialsActive)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.UserSettings{}).
			Where("trial_started_at IS NOT NULL AND trial_upgraded_at IS NULL AND plan = ?", "").
			Count(&count).Error; err != nil {
			log.Errorf("Error counting active trials: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyTrialsActive, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Errorf("Error caching active trials: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all dashboard statistics, refreshing the cache when stale.
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TotalUsers:   GetTotalUsers(),
		MonthExports: GetMonthExports(),
		ActiveTrials: GetActiveTrials(),
	}
}
