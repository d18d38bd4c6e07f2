package models

import "time"

// EmailTemplate identifies a canned notification template
type EmailTemplate string

const (
	EmailTemplateBusinessApproved EmailTemplate = "businessApproved"
	EmailTemplateBusinessDenied   EmailTemplate = "businessDenied"
	EmailTemplateSignupApproved   EmailTemplate = "signupApproved"
	EmailTemplateSignupDenied     EmailTemplate = "signupDenied"
)

// EmailJobStatus represents the status of an email outbox job
type EmailJobStatus string

const (
	EmailJobStatusPending    EmailJobStatus = "pending"
	EmailJobStatusProcessing EmailJobStatus = "processing"
	EmailJobStatusCompleted  EmailJobStatus = "completed"
	EmailJobStatusFailed     EmailJobStatus = "failed"
)

// EmailJob is a transactional-outbox row for notification emails. Jobs are
// inserted in the same transaction as the mutation they notify about and
// delivered asynchronously by the worker.
type EmailJob struct {
	JobID         string         `gorm:"primarykey;column:job_id" json:"jobId"`
	Template      EmailTemplate  `gorm:"column:template;not null" json:"template"`
	Recipient     string         `gorm:"column:recipient;not null" json:"recipient"`
	BusinessName  *string        `gorm:"column:business_name" json:"businessName,omitempty"`
	DenialMessage *string        `gorm:"column:denial_message" json:"denialMessage,omitempty"`
	Status        EmailJobStatus `gorm:"column:status;not null;default:pending;index" json:"status"`
	RetryCount    int            `gorm:"column:retry_count;not null;default:0" json:"retryCount"`
	MaxRetries    int            `gorm:"column:max_retries;not null;default:5" json:"maxRetries"`
	NextRetryAt   *time.Time     `gorm:"column:next_retry_at" json:"nextRetryAt,omitempty"`
	Error         *string        `gorm:"column:error" json:"error,omitempty"`
	ProcessedAt   *time.Time     `gorm:"column:processed_at" json:"processedAt,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (EmailJob) TableName() string {
	return "email_jobs"
}
