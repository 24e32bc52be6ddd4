package jobqueue

import (
	"testing"
	"time"
)

func TestJobStatusTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeThumbnail,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}

	job.MarkAsProcessing()
	if job.Status != JobStatusProcessing {
		t.Fatalf("expected processing, got %s", job.Status)
	}
	if job.ProcessedAt == nil {
		t.Fatal("expected ProcessedAt to be set")
	}

	job.MarkAsCompleted()
	if job.Status != JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}
	if job.ErrorMsg != "" {
		t.Fatal("completion should clear the error message")
	}
}

func TestJobRetryAccounting(t *testing.T) {
	job := &Job{
		ID:         "retry-job",
		Type:       JobTypeSendMail,
		Status:     JobStatusPending,
		MaxRetries: 2,
	}

	job.MarkAsFailed("smtp timeout")
	if !job.IsRetryable() {
		t.Fatal("first failure should be retryable")
	}
	if job.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", job.RetryCount)
	}

	job.MarkAsFailed("smtp timeout")
	if job.IsRetryable() {
		t.Fatal("job should not be retryable beyond max retries")
	}
}

func TestThumbnailPayloadRoundTrip(t *testing.T) {
	in := ThumbnailJobPayload{
		AttachmentID:   42,
		AttachmentUUID: "abc-123",
		ObjectKey:      "attachments/2026/08/abc-123.jpg",
		ThumbnailKey:   "attachments/2026/08/abc-123_thumb.jpg",
		ContentType:    "image/jpeg",
	}

	out, err := ThumbnailJobPayloadFromMap(in.ToMap())
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if *out != in {
		t.Fatalf("payload mismatch: %+v != %+v", *out, in)
	}
}

func TestMailPayloadRoundTrip(t *testing.T) {
	in := MailJobPayload{
		Kind:      MailKindActivation,
		Recipient: "ada@example.com",
		Name:      "Ada",
		Token:     "tok-1",
	}

	out, err := MailJobPayloadFromMap(in.ToMap())
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if *out != in {
		t.Fatalf("payload mismatch: %+v != %+v", *out, in)
	}
}
