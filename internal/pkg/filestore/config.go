package filestore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds attachment storage configuration.
type Config struct {
	Backend         string
	LocalBasePath   string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

// LoadConfig loads storage configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		Backend:         env.GetEnv("STORAGE_BACKEND", BackendLocal),
		LocalBasePath:   env.GetEnv("STORAGE_LOCAL_PATH", "./uploads"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	switch config.Backend {
	case BackendLocal:
		if config.LocalBasePath == "" {
			return nil, errors.New("STORAGE_LOCAL_PATH is required for local storage")
		}
	case BackendS3:
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 storage is enabled")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", config.Backend)
	}

	return config, nil
}

// ObjectKey generates a standardized object key for an attachment.
// Format: attachments/YYYY/MM/UUID.ext
func (c *Config) ObjectKey(attachmentUUID, fileName string, year, month int) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("attachments/%04d/%02d/%s%s", year, month, attachmentUUID, ext)
}

// ThumbnailKey generates the object key for an attachment's jpeg thumbnail.
func (c *Config) ThumbnailKey(attachmentUUID string, year, month int) string {
	return fmt.Sprintf("attachments/%04d/%02d/%s_thumb.jpg", year, month, attachmentUUID)
}

// GetAppEnv returns the current application environment.
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
