package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// S3Store stores attachment blobs in an S3 bucket.
type S3Store struct {
	s3Client *s3.Client
	config   *Config
}

// NewS3Store creates a store backed by S3 or an S3-compatible service.
func NewS3Store(cfg *Config) (*S3Store, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// Backblaze B2 specific settings
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	store := &S3Store{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := store.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[FileStore] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return store, nil
}

// testConnection checks that the configured bucket is reachable.
func (s *S3Store) testConnection() error {
	ctx := context.Background()

	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.BucketName),
	})

	if err != nil {
		// If the bucket doesn't exist, try to create it (for development)
		if GetAppEnv() != "prod" {
			log.Warnf("[FileStore] Bucket %s not found, attempting to create it", s.config.BucketName)
			return s.createBucket(s.config.BucketName)
		}
		return fmt.Errorf("bucket %s not accessible: %w", s.config.BucketName, err)
	}

	return nil
}

// createBucket creates a new S3 bucket (dev/staging only).
func (s *S3Store) createBucket(bucketName string) error {
	ctx := context.Background()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}

	// For AWS regions other than us-east-1 the location constraint is required.
	// For Backblaze B2 the constraint must be omitted.
	if s.config.EndpointURL == "" && s.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err := s.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	log.Infof("[FileStore] Successfully created bucket: %s", bucketName)
	return nil
}

// Save uploads an attachment blob to S3.
func (s *S3Store) Save(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	log.Infof("[FileStore] Starting upload: s3://%s/%s (Size: %d bytes)",
		s.config.BucketName, objectKey, size)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata: map[string]string{
			"upload-source": "grandfinale-attachments",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[FileStore] Successfully uploaded: s3://%s/%s", s.config.BucketName, objectKey)
	return nil
}

// Open streams an attachment blob from S3.
func (s *S3Store) Open(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	return result.Body, nil
}

// Delete removes an attachment blob from S3.
func (s *S3Store) Delete(ctx context.Context, objectKey string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	log.Infof("[FileStore] Successfully deleted: s3://%s/%s", s.config.BucketName, objectKey)
	return nil
}

// Exists checks whether an object exists in the bucket.
func (s *S3Store) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}
