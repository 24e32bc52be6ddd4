package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/filestore"
)

// processThumbnailJob generates a jpeg thumbnail for an image attachment and
// records the thumbnail key on the attachment row.
func (q *Queue) processThumbnailJob(ctx context.Context, job *Job) error {
	payload, err := ThumbnailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid thumbnail payload: %w", err)
	}

	if !filestore.IsThumbnailable(payload.ContentType) {
		log.Debugf("[JobQueue] Skipping thumbnail for %s (%s)", payload.AttachmentUUID, payload.ContentType)
		return nil
	}

	store, cfg, err := filestore.Default()
	if err != nil {
		return fmt.Errorf("storage unavailable: %w", err)
	}

	rc, err := store.Open(ctx, payload.ObjectKey)
	if err != nil && cfg.Backend == filestore.BackendS3 {
		// The blob may still sit in local staging while the S3 transfer is queued.
		if staging, serr := filestore.NewLocalStore(cfg.LocalBasePath); serr == nil {
			rc, err = staging.Open(ctx, payload.ObjectKey)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to open attachment %s: %w", payload.AttachmentUUID, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", payload.AttachmentUUID, err)
	}

	thumb, err := filestore.GenerateThumbnail(data)
	if err != nil {
		return fmt.Errorf("failed to generate thumbnail for %s: %w", payload.AttachmentUUID, err)
	}

	if err := store.Save(ctx, payload.ThumbnailKey, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		return fmt.Errorf("failed to store thumbnail for %s: %w", payload.AttachmentUUID, err)
	}

	db := database.GetDB()
	if err := db.Model(&models.FileAttachment{}).
		Where("id = ?", payload.AttachmentID).
		Update("thumbnail_key", payload.ThumbnailKey).Error; err != nil {
		return fmt.Errorf("failed to record thumbnail key for %s: %w", payload.AttachmentUUID, err)
	}

	log.Infof("[JobQueue] Thumbnail ready for attachment %s", payload.AttachmentUUID)
	return nil
}
