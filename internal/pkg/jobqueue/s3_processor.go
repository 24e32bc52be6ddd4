package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/filestore"
)

// processS3UploadJob moves an attachment blob from the local staging area to
// the configured S3 bucket and flips the row's storage backend. Uploads are
// always staged locally first so the request path never blocks on S3.
func (q *Queue) processS3UploadJob(ctx context.Context, job *Job) error {
	payload, err := S3UploadJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid s3 upload payload: %w", err)
	}

	cfg, err := filestore.LoadConfig()
	if err != nil {
		return fmt.Errorf("storage config unavailable: %w", err)
	}
	if cfg.Backend != filestore.BackendS3 {
		// Backend switched back to local since the job was enqueued.
		log.Warnf("[JobQueue] Skipping S3 upload for %s, backend is %s", payload.AttachmentUUID, cfg.Backend)
		return nil
	}

	staging, err := filestore.NewLocalStore(cfg.LocalBasePath)
	if err != nil {
		return fmt.Errorf("staging store unavailable: %w", err)
	}
	remote, err := filestore.NewS3Store(cfg)
	if err != nil {
		return fmt.Errorf("s3 store unavailable: %w", err)
	}

	rc, err := staging.Open(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to open staged blob %s: %w", payload.AttachmentUUID, err)
	}
	defer rc.Close()

	if err := remote.Save(ctx, payload.ObjectKey, rc, payload.Size, payload.ContentType); err != nil {
		return fmt.Errorf("failed to upload %s: %w", payload.AttachmentUUID, err)
	}

	db := database.GetDB()
	if err := db.Model(&models.FileAttachment{}).
		Where("id = ?", payload.AttachmentID).
		Update("storage", models.AttachmentStorageS3).Error; err != nil {
		return fmt.Errorf("failed to record storage backend for %s: %w", payload.AttachmentUUID, err)
	}

	// Only drop the staged copy once the row points at S3.
	if err := staging.Delete(ctx, payload.ObjectKey); err != nil {
		log.Warnf("[JobQueue] Failed to remove staged blob %s: %v", payload.ObjectKey, err)
	}

	log.Infof("[JobQueue] Uploaded attachment %s to S3", payload.AttachmentUUID)
	return nil
}

// processS3DeleteJob removes an attachment blob and its thumbnail after the
// owning row was deleted.
func (q *Queue) processS3DeleteJob(ctx context.Context, job *Job) error {
	payload, err := S3DeleteJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid s3 delete payload: %w", err)
	}

	store, _, err := filestore.Default()
	if err != nil {
		return fmt.Errorf("storage unavailable: %w", err)
	}

	if err := store.Delete(ctx, payload.ObjectKey); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", payload.ObjectKey, err)
	}
	if payload.ThumbnailKey != "" {
		if err := store.Delete(ctx, payload.ThumbnailKey); err != nil {
			log.Warnf("[JobQueue] Failed to delete thumbnail %s: %v", payload.ThumbnailKey, err)
		}
	}

	log.Infof("[JobQueue] Deleted blobs for attachment %s", payload.AttachmentUUID)
	return nil
}
