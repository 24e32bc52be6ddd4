package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/constants"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
	"github.com/SkillBinder/GrandFinale/internal/pkg/filestore"
	"github.com/SkillBinder/GrandFinale/internal/pkg/jobqueue"
	metrics "github.com/SkillBinder/GrandFinale/internal/pkg/metrics/counter"
	"github.com/SkillBinder/GrandFinale/internal/pkg/security"
	"github.com/SkillBinder/GrandFinale/internal/pkg/upload"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// DownloadTokenTTL bounds how long a shared attachment link stays valid.
const DownloadTokenTTL = 15 * time.Minute

// HandleUploadAttachment stores a letter or multimedia file for one section.
// Blobs are always staged on local disk first; the S3 transfer happens in the
// background queue.
func HandleUploadAttachment(c *fiber.Ctx) error {
	section, ok := entitlements.ParseSectionID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_section", "Unknown section")
	}

	if !models.GetAppSettings().UploadEnabled {
		return jsonError(c, fiber.StatusServiceUnavailable, "uploads_disabled", "Uploads are temporarily disabled")
	}

	snap := usercontext.GetSnapshot(c)
	if !snap.CanUploadInSection(time.Now(), section) {
		return jsonError(c, fiber.StatusForbidden, "upload_locked", "Your plan does not include uploads in this section")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "missing_file", "No file was uploaded")
	}
	if fileHeader.Size <= 0 || fileHeader.Size > upload.MaxAttachmentSize {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Sprintf("Files are limited to %d MB", upload.MaxAttachmentSize/(1024*1024)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable_file", "The uploaded file could not be read")
	}
	defer src.Close()

	head := make([]byte, 512)
	n, _ := src.Read(head)
	contentType, err := upload.ValidateAttachmentBySniff(fileHeader.Filename, head[:n])
	if err != nil {
		return jsonError(c, fiber.StatusUnsupportedMediaType, "unsupported_type", err.Error())
	}
	if _, err := src.Seek(0, 0); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to process upload")
	}

	cfg, err := filestore.LoadConfig()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Storage is unavailable")
	}
	staging, err := filestore.NewLocalStore(cfg.LocalBasePath)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Storage is unavailable")
	}

	now := time.Now()
	attachmentUUID := uuid.New().String()
	objectKey := cfg.ObjectKey(attachmentUUID, fileHeader.Filename, now.Year(), int(now.Month()))

	if err := staging.Save(c.Context(), objectKey, src, fileHeader.Size, contentType); err != nil {
		log.Errorf("attachment staging failed for user %d: %v", usercontext.GetUserID(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store upload")
	}

	attachment := &models.FileAttachment{
		UUID:        attachmentUUID,
		UserID:      usercontext.GetUserID(c),
		SectionID:   int(section),
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		SizeBytes:   fileHeader.Size,
		Storage:     models.AttachmentStorageLocal,
		StorageKey:  objectKey,
	}
	if err := repository.GetGlobalFactory().GetAttachmentRepository().Create(attachment); err != nil {
		_ = staging.Delete(c.Context(), objectKey)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to record upload")
	}

	queue := jobqueue.GetManager().GetQueue()
	if cfg.Backend == filestore.BackendS3 {
		payload := jobqueue.S3UploadJobPayload{
			AttachmentID:   attachment.ID,
			AttachmentUUID: attachment.UUID,
			ObjectKey:      objectKey,
			ContentType:    contentType,
			Size:           fileHeader.Size,
		}
		if _, err := queue.EnqueueJob(jobqueue.JobTypeS3Upload, payload.ToMap()); err != nil {
			log.Errorf("failed to enqueue S3 upload for %s: %v", attachment.UUID, err)
		}
	}
	if filestore.IsThumbnailable(contentType) {
		payload := jobqueue.ThumbnailJobPayload{
			AttachmentID:   attachment.ID,
			AttachmentUUID: attachment.UUID,
			ObjectKey:      objectKey,
			ThumbnailKey:   cfg.ThumbnailKey(attachment.UUID, now.Year(), int(now.Month())),
			ContentType:    contentType,
		}
		if _, err := queue.EnqueueJob(jobqueue.JobTypeThumbnail, payload.ToMap()); err != nil {
			log.Errorf("failed to enqueue thumbnail for %s: %v", attachment.UUID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"uuid":         attachment.UUID,
		"section_id":   attachment.SectionID,
		"file_name":    attachment.FileName,
		"content_type": attachment.ContentType,
		"size_bytes":   attachment.SizeBytes,
	})
}

// HandleListAttachments lists the caller's attachments for one section.
func HandleListAttachments(c *fiber.Ctx) error {
	section, ok := entitlements.ParseSectionID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_section", "Unknown section")
	}

	snap := usercontext.GetSnapshot(c)
	if !snap.CanAccessSection(time.Now(), section) {
		return jsonError(c, fiber.StatusForbidden, "section_locked", "Your plan does not include this section")
	}

	attachments, err := repository.GetGlobalFactory().GetAttachmentRepository().
		ListByUserAndSection(usercontext.GetUserID(c), int(section))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load attachments")
	}

	items := make([]fiber.Map, 0, len(attachments))
	for _, a := range attachments {
		items = append(items, fiber.Map{
			"uuid":           a.UUID,
			"file_name":      a.FileName,
			"content_type":   a.ContentType,
			"size_bytes":     a.SizeBytes,
			"has_thumbnail":  a.ThumbnailKey != "",
			"download_count": a.DownloadCount,
			"created_at":     a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{"section_id": int(section), "attachments": items})
}

// HandleCreateDownloadToken issues a short-lived signed link for one
// attachment, usable without a session cookie.
func HandleCreateDownloadToken(c *fiber.Ctx) error {
	attachment, err := loadOwnAttachment(c)
	if err != nil {
		return err
	}

	token, err := security.GenerateDownloadToken(
		usercontext.GetUserID(c), attachment.UUID, DownloadTokenTTL, downloadTokenSecret())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to sign download link")
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"url":        fmt.Sprintf("%s/%s/download?token=%s", constants.AttachmentRoute, attachment.UUID, token),
		"expires_in": int(DownloadTokenTTL.Seconds()),
	})
}

// HandleDownloadAttachment streams an attachment blob. Access requires either
// an owning session or a valid signed token.
func HandleDownloadAttachment(c *fiber.Ctx) error {
	attachment, err := repository.GetGlobalFactory().GetAttachmentRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Attachment not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load attachment")
	}

	if !mayAccessAttachment(c, attachment) {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "You may not download this attachment")
	}

	store, err := attachmentStore(attachment)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Storage is unavailable")
	}
	rc, err := store.Open(c.Context(), attachment.StorageKey)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "blob_missing", "Attachment data is unavailable")
	}

	if err := metrics.AddAttachmentDownload(attachment.ID); err != nil {
		log.Debugf("download counter increment failed for %s: %v", attachment.UUID, err)
	}

	c.Set(fiber.HeaderContentType, attachment.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	return c.SendStream(rc, int(attachment.SizeBytes))
}

// HandleAttachmentThumbnail streams the jpeg thumbnail for an image
// attachment, falling back to 404 while the background job is pending.
func HandleAttachmentThumbnail(c *fiber.Ctx) error {
	attachment, err := loadOwnAttachment(c)
	if err != nil {
		return err
	}
	if attachment.ThumbnailKey == "" {
		return jsonError(c, fiber.StatusNotFound, "no_thumbnail", "No thumbnail available")
	}

	store, err := attachmentStore(attachment)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Storage is unavailable")
	}
	rc, err := store.Open(c.Context(), attachment.ThumbnailKey)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "no_thumbnail", "No thumbnail available")
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.SendStream(rc)
}

// HandleDeleteAttachment removes the row immediately and cleans the blobs up
// in the background.
func HandleDeleteAttachment(c *fiber.Ctx) error {
	attachment, err := loadOwnAttachment(c)
	if err != nil {
		return err
	}

	if err := repository.GetGlobalFactory().GetAttachmentRepository().Delete(attachment.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete attachment")
	}

	payload := jobqueue.S3DeleteJobPayload{
		AttachmentUUID: attachment.UUID,
		ObjectKey:      attachment.StorageKey,
		ThumbnailKey:   attachment.ThumbnailKey,
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeS3Delete, payload.ToMap()); err != nil {
		log.Errorf("failed to enqueue blob cleanup for %s: %v", attachment.UUID, err)
	}

	return c.JSON(fiber.Map{"uuid": attachment.UUID, "deleted": true})
}

// loadOwnAttachment resolves :uuid and enforces ownership (admins included).
func loadOwnAttachment(c *fiber.Ctx) (*models.FileAttachment, error) {
	attachment, err := repository.GetGlobalFactory().GetAttachmentRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Attachment not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load attachment")
	}
	if attachment.UserID != usercontext.GetUserID(c) && !usercontext.IsAdmin(c) {
		return nil, jsonError(c, fiber.StatusForbidden, "forbidden", "You may not access this attachment")
	}
	return attachment, nil
}

// mayAccessAttachment allows the owner, admins, or a valid signed token.
func mayAccessAttachment(c *fiber.Ctx, attachment *models.FileAttachment) bool {
	if usercontext.IsLoggedIn(c) {
		if attachment.UserID == usercontext.GetUserID(c) || usercontext.IsAdmin(c) {
			return true
		}
	}
	token := c.Query("token")
	if token == "" {
		return false
	}
	claims, err := security.VerifyDownloadToken(token, downloadTokenSecret())
	if err != nil {
		return false
	}
	return claims.AttachmentUUID == attachment.UUID
}

// attachmentStore picks the backend the blob actually lives on, which can
// trail the configured backend while an S3 transfer is still queued.
func attachmentStore(attachment *models.FileAttachment) (filestore.Store, error) {
	cfg, err := filestore.LoadConfig()
	if err != nil {
		return nil, err
	}
	if attachment.Storage == models.AttachmentStorageS3 {
		return filestore.NewS3Store(cfg)
	}
	return filestore.NewLocalStore(cfg.LocalBasePath)
}

func downloadTokenSecret() string {
	return env.GetEnv("DOWNLOAD_TOKEN_SECRET", env.GetEnv("APP_SECRET", "grandfinale-dev-secret"))
}
