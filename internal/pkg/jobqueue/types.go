package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeThumbnail JobType = "thumbnail"
	JobTypeSendMail  JobType = "send_mail"
	JobTypeS3Upload  JobType = "s3_upload"
	JobTypeS3Delete  JobType = "s3_delete"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// ThumbnailJobPayload contains the payload for thumbnail generation jobs
type ThumbnailJobPayload struct {
	AttachmentID   uint   `json:"attachment_id"`
	AttachmentUUID string `json:"attachment_uuid"`
	ObjectKey      string `json:"object_key"`
	ThumbnailKey   string `json:"thumbnail_key"`
	ContentType    string `json:"content_type"`
}

// ToMap converts the payload to a map for storage
func (p ThumbnailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"attachment_id":   p.AttachmentID,
		"attachment_uuid": p.AttachmentUUID,
		"object_key":      p.ObjectKey,
		"thumbnail_key":   p.ThumbnailKey,
		"content_type":    p.ContentType,
	}
}

// ThumbnailJobPayloadFromMap creates a payload from a map
func ThumbnailJobPayloadFromMap(data map[string]interface{}) (*ThumbnailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ThumbnailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// Mail kinds handled by the send_mail processor.
const (
	MailKindActivation     = "activation"
	MailKindPasswordReset  = "password_reset"
	MailKindCouplesInvite  = "couples_invite"
	MailKindSupportAck     = "support_ack"
	MailKindRequestDecided = "request_decided"
)

// MailJobPayload contains the payload for outbound mail jobs
type MailJobPayload struct {
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// ToMap converts the payload to a map for storage
func (p MailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"kind":      p.Kind,
		"recipient": p.Recipient,
		"name":      p.Name,
		"token":     p.Token,
		"subject":   p.Subject,
		"body":      p.Body,
	}
}

// MailJobPayloadFromMap creates a payload from a map
func MailJobPayloadFromMap(data map[string]interface{}) (*MailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload MailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// S3UploadJobPayload contains the payload for uploading an attachment blob
// from local staging into S3.
type S3UploadJobPayload struct {
	AttachmentID   uint   `json:"attachment_id"`
	AttachmentUUID string `json:"attachment_uuid"`
	ObjectKey      string `json:"object_key"`
	ContentType    string `json:"content_type"`
	Size           int64  `json:"size"`
}

// ToMap converts the payload to a map for storage
func (p S3UploadJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"attachment_id":   p.AttachmentID,
		"attachment_uuid": p.AttachmentUUID,
		"object_key":      p.ObjectKey,
		"content_type":    p.ContentType,
		"size":            p.Size,
	}
}

// S3UploadJobPayloadFromMap creates a payload from a map
func S3UploadJobPayloadFromMap(data map[string]interface{}) (*S3UploadJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload S3UploadJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// S3DeleteJobPayload contains the payload for removing attachment blobs
// after the owning row was deleted.
type S3DeleteJobPayload struct {
	AttachmentUUID string `json:"attachment_uuid"`
	ObjectKey      string `json:"object_key"`
	ThumbnailKey   string `json:"thumbnail_key"`
}

// ToMap converts the payload to a map for storage
func (p S3DeleteJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"attachment_uuid": p.AttachmentUUID,
		"object_key":      p.ObjectKey,
		"thumbnail_key":   p.ThumbnailKey,
	}
}

// S3DeleteJobPayloadFromMap creates a delete payload from a map
func S3DeleteJobPayloadFromMap(data map[string]interface{}) (*S3DeleteJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload S3DeleteJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
