package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/hba-portal/membership-backend/v1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmailWorker delivers notification emails from the outbox table and sweeps
// expired request history on the same schedule
type EmailWorker struct {
	db           *gorm.DB
	mailer       Mailer
	pollInterval time.Duration
	batchSize    int
}

// NewEmailWorker creates a new email worker
func NewEmailWorker(db *gorm.DB, mailer Mailer) *EmailWorker {
	return &EmailWorker{
		db:           db,
		mailer:       mailer,
		pollInterval: 10 * time.Second,
		batchSize:    10,
	}
}

// Start runs the background worker until the context is cancelled
func (w *EmailWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Email worker started", "pollInterval", w.pollInterval, "batchSize", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Email worker stopped")
			return
		case <-ticker.C:
			w.sweepExpiredHistory()
			w.processJobs()
		}
	}
}

// sweepExpiredHistory removes archived requests whose retention window has
// passed
func (w *EmailWorker) sweepExpiredHistory() {
	result := w.db.Where("expires_at <= ?", time.Now()).Delete(&models.RequestHistory{})
	if result.Error != nil {
		slog.Warn("Failed to sweep expired request history", "error", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		slog.Info("Swept expired request history", "count", result.RowsAffected)
	}
}

// processJobs processes a batch of pending email jobs
func (w *EmailWorker) processJobs() {
	now := time.Now()

	var jobs []models.EmailJob

	// Reset jobs stuck in "processing" (e.g. from a crashed worker) back to
	// pending after 5 minutes
	stuckThreshold := now.Add(-5 * time.Minute)
	if err := w.db.Model(&models.EmailJob{}).
		Where("status = ?", models.EmailJobStatusProcessing).
		Where("updated_at < ?", stuckThreshold).
		Update("status", models.EmailJobStatusPending).Error; err != nil {
		slog.Warn("Failed to clean up stuck processing jobs", "error", err)
	}

	// Claim jobs inside a transaction with row-level locking so only one
	// worker picks up each job
	err := w.db.Transaction(func(tx *gorm.DB) error {
		// SKIP LOCKED avoids blocking other workers on contended rows
		if err := tx.Where("status = ?", models.EmailJobStatusPending).
			Where("(next_retry_at IS NULL OR next_retry_at <= ?)", now).
			Order("created_at ASC").
			Limit(w.batchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&jobs).Error; err != nil {
			return err
		}

		if len(jobs) > 0 {
			jobIDs := make([]string, len(jobs))
			for i := range jobs {
				jobIDs[i] = jobs[i].JobID
			}

			if err := tx.Model(&models.EmailJob{}).
				Where("job_id IN ?", jobIDs).
				Update("status", models.EmailJobStatusProcessing).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		slog.Error("Failed to fetch pending email jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	slog.Debug("Processing email jobs", "count", len(jobs))

	for i := range jobs {
		w.processJob(&jobs[i])
	}
}

// processJob renders and delivers a single email job, then records the
// outcome with exponential-backoff retry bookkeeping
func (w *EmailWorker) processJob(job *models.EmailJob) {
	now := time.Now()

	err := w.deliver(job)

	newRetryCount := job.RetryCount + 1

	updates := map[string]interface{}{
		"processed_at": now,
		"retry_count":  newRetryCount,
	}

	if err != nil {
		errorMsg := err.Error()
		updates["error"] = &errorMsg

		// RetryCount starts at 0, so with MaxRetries=5 the sixth failed
		// attempt (newRetryCount=6) gives up
		if newRetryCount > job.MaxRetries {
			updates["status"] = models.EmailJobStatusFailed
			updates["next_retry_at"] = nil
			slog.Error("Email job failed after max retries",
				"jobID", job.JobID,
				"template", job.Template,
				"retryCount", newRetryCount,
				"maxRetries", job.MaxRetries,
				"error", err)
		} else {
			// Exponential backoff: base delay 1 minute, doubled for each retry
			baseDelay := time.Minute
			backoffDelay := baseDelay * time.Duration(1<<job.RetryCount)
			nextRetryAt := now.Add(backoffDelay)
			updates["next_retry_at"] = &nextRetryAt
			updates["status"] = models.EmailJobStatusPending

			slog.Warn("Email job failed, will retry",
				"jobID", job.JobID,
				"template", job.Template,
				"retryCount", newRetryCount,
				"maxRetries", job.MaxRetries,
				"error", err,
				"nextRetryAt", nextRetryAt)
		}
	} else {
		updates["status"] = models.EmailJobStatusCompleted
		updates["error"] = nil
		updates["next_retry_at"] = nil
		slog.Info("Email job completed successfully",
			"jobID", job.JobID,
			"template", job.Template)
	}

	if updateErr := w.db.Model(job).Updates(updates).Error; updateErr != nil {
		slog.Error("Failed to update email job status",
			"jobID", job.JobID,
			"error", updateErr)
	}
}

func (w *EmailWorker) deliver(job *models.EmailJob) error {
	subject, body, err := renderEmailTemplate(job)
	if err != nil {
		return err
	}

	return w.mailer.Send(&EmailMessage{
		To:      []string{job.Recipient},
		Subject: subject,
		Body:    body,
	})
}
