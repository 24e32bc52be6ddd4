package models

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings is the in-memory view of the admin-tunable application
// settings.
type AppSettings struct {
	SiteTitle           string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription     string `json:"site_description" validate:"max=500"`
	RegistrationEnabled bool   `json:"registration_enabled"`
	TrialEnabled        bool   `json:"trial_enabled"`
	UploadEnabled       bool   `json:"upload_enabled"`
	WatermarkLabel      string `json:"watermark_label" validate:"max=100"`
	GraceDays           int    `json:"grace_days" validate:"min=0,max=90"`
	JobQueueWorkers     int    `json:"job_queue_workers" validate:"min=1,max=32"`
}

// GetJobQueueWorkerCount returns the configured background worker count.
func (s *AppSettings) GetJobQueueWorkerCount() int {
	if s.JobQueueWorkers <= 0 {
		return 3
	}
	return s.JobQueueWorkers
}

var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

func defaultAppSettings() *AppSettings {
	return &AppSettings{
		SiteTitle:           "The Grand Finale",
		SiteDescription:     "Legacy planning, one section at a time",
		RegistrationEnabled: true,
		TrialEnabled:        true,
		UploadEnabled:       true,
		WatermarkLabel:      "PREVIEW",
		GraceDays:           7,
		JobQueueWorkers:     3,
	}
}

// GetAppSettings returns the current application settings, falling back to
// defaults when LoadSettings has not run yet.
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return defaultAppSettings()
	}
	return appSettings
}

func (s *AppSettings) Validate() error {
	v := validator.New()
	return v.Struct(s)
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	loaded := defaultAppSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			loaded.SiteTitle = setting.Value
		case "site_description":
			loaded.SiteDescription = setting.Value
		case "registration_enabled":
			loaded.RegistrationEnabled = setting.Value == "true"
		case "trial_enabled":
			loaded.TrialEnabled = setting.Value == "true"
		case "upload_enabled":
			loaded.UploadEnabled = setting.Value == "true"
		case "watermark_label":
			loaded.WatermarkLabel = setting.Value
		case "grace_days":
			if n, err := strconv.Atoi(setting.Value); err == nil && n >= 0 {
				loaded.GraceDays = n
			}
		case "job_queue_workers":
			if n, err := strconv.Atoi(setting.Value); err == nil && n > 0 {
				loaded.JobQueueWorkers = n
			}
		}
	}

	appSettings = loaded
	return nil
}

// SaveSettings validates and persists the settings, then refreshes the
// in-memory copy.
func SaveSettings(db *gorm.DB, s *AppSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	pairs := []Setting{
		{Key: "site_title", Value: s.SiteTitle, Type: "string"},
		{Key: "site_description", Value: s.SiteDescription, Type: "string"},
		{Key: "registration_enabled", Value: strconv.FormatBool(s.RegistrationEnabled), Type: "boolean"},
		{Key: "trial_enabled", Value: strconv.FormatBool(s.TrialEnabled), Type: "boolean"},
		{Key: "upload_enabled", Value: strconv.FormatBool(s.UploadEnabled), Type: "boolean"},
		{Key: "watermark_label", Value: s.WatermarkLabel, Type: "string"},
		{Key: "grace_days", Value: strconv.Itoa(s.GraceDays), Type: "integer"},
		{Key: "job_queue_workers", Value: strconv.Itoa(s.JobQueueWorkers), Type: "integer"},
	}

	for _, pair := range pairs {
		var existing Setting
		err := db.Where("setting_key = ?", pair.Key).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&pair).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		existing.Value = pair.Value
		existing.Type = pair.Type
		if err := db.Save(&existing).Error; err != nil {
			return err
		}
	}

	settingsMu.Lock()
	copied := *s
	appSettings = &copied
	settingsMu.Unlock()
	return nil
}
