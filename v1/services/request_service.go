package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hba-portal/membership-backend/v1/models"
	"gorm.io/gorm"
)

// ObjectRemover deletes a stored object identified by its public URL
type ObjectRemover interface {
	Remove(ctx context.Context, publicURL string) error
}

// RequestService handles the profile change-request lifecycle
type RequestService struct {
	db      *gorm.DB
	storage ObjectRemover
}

// NewRequestService creates a new request service. storage may be nil, in
// which case stale image cleanup is skipped.
func NewRequestService(db *gorm.DB, storage ObjectRemover) *RequestService {
	return &RequestService{db: db, storage: storage}
}

// SubmitRequest records a profile change proposal for the caller's business.
// If the caller already has an open request the provided fields are merged
// into it; otherwise a new request is created with the current profile as
// the old snapshot.
func (s *RequestService) SubmitRequest(idpUserID string, req *models.SubmitRequestRequest) (*models.ChangeRequest, error) {
	var business models.Business
	if err := s.db.First(&business, "idp_user_id = ?", idpUserID).Error; err != nil {
		return nil, fmt.Errorf("failed to find business for user: %w", err)
	}

	// A referenced request must belong to the caller and still be open
	if req.RequestID != nil {
		var referenced models.ChangeRequest
		if err := s.db.First(&referenced, "request_id = ?", *req.RequestID).Error; err != nil {
			return nil, err
		}
		if referenced.IdpUserID != idpUserID {
			return nil, ErrNotOwner
		}
		if !referenced.IsOpen() {
			return nil, ErrRequestClosed
		}
	}

	var existing models.ChangeRequest
	err := s.db.First(&existing, "idp_user_id = ? AND status = ?", idpUserID, models.RequestStatusOpen).Error
	if err == nil {
		// Merge into the open request instead of creating a duplicate
		existing.New = MergeSnapshots(existing.New, req.BusinessSnapshot)
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update change request: %w", err)
		}
		slog.Info("Change request updated", "requestID", existing.RequestID, "idpUserID", idpUserID)
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	request := models.ChangeRequest{
		RequestID: "req_" + uuid.New().String(),
		IdpUserID: idpUserID,
		Old:       business.Snapshot(),
		New:       req.BusinessSnapshot,
		Status:    models.RequestStatusOpen,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create change request: %w", err)
	}

	slog.Info("Change request created", "requestID", request.RequestID, "idpUserID", idpUserID)
	return &request, nil
}

// ApproveRequest applies an open request's proposed fields to the business,
// archives the request to history, removes the request row, and queues an
// approval email. Replaced logo and banner images are deleted from object
// storage after the transaction commits.
func (s *RequestService) ApproveRequest(ctx context.Context, requestID string) (*models.Business, error) {
	var request models.ChangeRequest
	if err := s.db.First(&request, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	if !request.IsOpen() {
		return nil, ErrRequestClosed
	}

	var business models.Business
	if err := s.db.First(&business, "idp_user_id = ?", request.IdpUserID).Error; err != nil {
		return nil, fmt.Errorf("failed to find business for request: %w", err)
	}

	staleImages := collectStaleImages(&business, request.New)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ApplySnapshot(&business, request.New)
		if err := tx.Save(&business).Error; err != nil {
			return fmt.Errorf("failed to apply changes to business: %w", err)
		}

		history := models.RequestHistory{
			HistoryID: "hist_" + uuid.New().String(),
			RequestID: request.RequestID,
			IdpUserID: request.IdpUserID,
			Old:       request.Old,
			New:       request.New,
			Decision:  models.DecisionApproved,
			ExpiresAt: time.Now().AddDate(0, 0, models.RequestHistoryTTLDays),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to archive request: %w", err)
		}

		if err := tx.Delete(&models.ChangeRequest{}, "request_id = ?", request.RequestID).Error; err != nil {
			return fmt.Errorf("failed to remove change request: %w", err)
		}

		if business.PointOfContact.Email != "" {
			job := models.EmailJob{
				JobID:        "job_" + uuid.New().String(),
				Template:     models.EmailTemplateBusinessApproved,
				Recipient:    business.PointOfContact.Email,
				BusinessName: &business.BusinessName,
				Status:       models.EmailJobStatusPending,
				MaxRetries:   5,
			}
			if err := tx.Create(&job).Error; err != nil {
				return fmt.Errorf("failed to queue approval email: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Image cleanup is best effort; the profile update already committed
	s.removeStaleImages(ctx, requestID, staleImages)

	slog.Info("Change request approved", "requestID", request.RequestID, "businessID", business.BusinessID)
	return &business, nil
}

// DenyRequest archives an open request to history without touching the
// business profile, removes the request row, and queues a denial email
func (s *RequestService) DenyRequest(requestID string, denialMessage *string) (*models.ChangeRequest, error) {
	var request models.ChangeRequest
	if err := s.db.First(&request, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	if !request.IsOpen() {
		return nil, ErrRequestClosed
	}

	var business models.Business
	if err := s.db.First(&business, "idp_user_id = ?", request.IdpUserID).Error; err != nil {
		return nil, fmt.Errorf("failed to find business for request: %w", err)
	}

	decision := models.DecisionDenied
	err := s.db.Transaction(func(tx *gorm.DB) error {
		request.Status = models.RequestStatusClosed
		request.Decision = &decision
		request.DenialMessage = denialMessage
		if err := tx.Save(&request).Error; err != nil {
			return fmt.Errorf("failed to close change request: %w", err)
		}

		history := models.RequestHistory{
			HistoryID:     "hist_" + uuid.New().String(),
			RequestID:     request.RequestID,
			IdpUserID:     request.IdpUserID,
			Old:           request.Old,
			New:           request.New,
			Decision:      models.DecisionDenied,
			DenialMessage: denialMessage,
			ExpiresAt:     time.Now().AddDate(0, 0, models.RequestHistoryTTLDays),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to archive request: %w", err)
		}

		if err := tx.Delete(&models.ChangeRequest{}, "request_id = ?", request.RequestID).Error; err != nil {
			return fmt.Errorf("failed to remove change request: %w", err)
		}

		if business.PointOfContact.Email != "" {
			job := models.EmailJob{
				JobID:         "job_" + uuid.New().String(),
				Template:      models.EmailTemplateBusinessDenied,
				Recipient:     business.PointOfContact.Email,
				BusinessName:  &business.BusinessName,
				DenialMessage: denialMessage,
				Status:        models.EmailJobStatusPending,
				MaxRetries:    5,
			}
			if err := tx.Create(&job).Error; err != nil {
				return fmt.Errorf("failed to queue denial email: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Change request denied", "requestID", request.RequestID)
	return &request, nil
}

// GetRequest retrieves a change request by ID
func (s *RequestService) GetRequest(requestID string) (*models.ChangeRequest, error) {
	var request models.ChangeRequest
	if err := s.db.First(&request, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// GetRequests retrieves change requests, filtered by owner and status if
// provided
func (s *RequestService) GetRequests(idpUserID, status *string) ([]models.ChangeRequest, error) {
	var requests []models.ChangeRequest
	query := s.db.Order("created_at DESC")
	if idpUserID != nil && *idpUserID != "" {
		query = query.Where("idp_user_id = ?", *idpUserID)
	}
	if status != nil && *status != "" {
		query = query.Where("status = ?", *status)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// GetRequestChanges computes the field-level diff a request proposes
func (s *RequestService) GetRequestChanges(requestID string) (map[string]FieldChange, error) {
	request, err := s.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	return SnapshotChanges(request.Old, request.New), nil
}

// GetRequestHistory retrieves an archived request by history ID
func (s *RequestService) GetRequestHistory(historyID string) (*models.RequestHistory, error) {
	var history models.RequestHistory
	if err := s.db.First(&history, "history_id = ?", historyID).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

// GetRequestHistories retrieves archived requests, filtered by owner if
// provided. Expired rows that the sweep has not yet removed are excluded.
func (s *RequestService) GetRequestHistories(idpUserID *string) ([]models.RequestHistory, error) {
	var histories []models.RequestHistory
	query := s.db.Where("expires_at > ?", time.Now()).Order("created_at DESC")
	if idpUserID != nil && *idpUserID != "" {
		query = query.Where("idp_user_id = ?", *idpUserID)
	}
	if err := query.Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

// collectStaleImages returns the stored logo and banner URLs that an approval
// is about to replace. Default placeholder images are never collected.
func collectStaleImages(business *models.Business, proposed models.BusinessSnapshot) []string {
	var stale []string
	if proposed.LogoUrl != nil && *proposed.LogoUrl != business.LogoUrl &&
		business.LogoUrl != "" && !strings.Contains(business.LogoUrl, models.DefaultLogoMarker) {
		stale = append(stale, business.LogoUrl)
	}
	if proposed.BannerUrl != nil && *proposed.BannerUrl != business.BannerUrl &&
		business.BannerUrl != "" && !strings.Contains(business.BannerUrl, models.DefaultBannerMarker) {
		stale = append(stale, business.BannerUrl)
	}
	return stale
}

func (s *RequestService) removeStaleImages(ctx context.Context, requestID string, urls []string) {
	if s.storage == nil || len(urls) == 0 {
		return
	}
	for _, u := range urls {
		if err := s.storage.Remove(ctx, u); err != nil {
			slog.Warn("Failed to delete replaced image", "requestID", requestID, "url", u, "error", err)
		}
	}
}
