package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hba-portal/membership-backend/idp"
	"github.com/hba-portal/membership-backend/v1/models"
	"gorm.io/gorm"
)

// SignupService handles membership applications from new users
type SignupService struct {
	db            *gorm.DB
	idpProvider   idp.IdentityProviderAPI
	memberGroupID string
}

// NewSignupService creates a new signup service. memberGroupID is the
// identity-provider group approved members are added to; an empty value
// disables group assignment.
func NewSignupService(db *gorm.DB, idpProvider idp.IdentityProviderAPI, memberGroupID string) *SignupService {
	return &SignupService{db: db, idpProvider: idpProvider, memberGroupID: memberGroupID}
}

// SubmitSignup records a membership application for the caller. If the
// caller already has an open application the provided fields are merged
// into it.
func (s *SignupService) SubmitSignup(idpUserID string, req *models.SubmitSignupRequest) (*models.SignupRequest, error) {
	var existing models.SignupRequest
	err := s.db.First(&existing, "idp_user_id = ? AND status = ?", idpUserID, models.RequestStatusOpen).Error
	if err == nil {
		existing.Payload = MergeSnapshots(existing.Payload, req.BusinessSnapshot)
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update signup request: %w", err)
		}
		slog.Info("Signup request updated", "signupID", existing.SignupID, "idpUserID", idpUserID)
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	signup := models.SignupRequest{
		SignupID:  "sr_" + uuid.New().String(),
		IdpUserID: idpUserID,
		Payload:   req.BusinessSnapshot,
		Status:    models.RequestStatusOpen,
	}
	if err := s.db.Create(&signup).Error; err != nil {
		return nil, fmt.Errorf("failed to create signup request: %w", err)
	}

	slog.Info("Signup request created", "signupID", signup.SignupID, "idpUserID", idpUserID)
	return &signup, nil
}

// ApproveSignup creates the business profile from the application payload,
// starts the first membership term, closes the application, and queues a
// welcome email. The member is added to the provider member group after the
// transaction commits.
func (s *SignupService) ApproveSignup(ctx context.Context, signupID string) (*models.Business, error) {
	var signup models.SignupRequest
	if err := s.db.First(&signup, "signup_id = ?", signupID).Error; err != nil {
		return nil, err
	}
	if !signup.IsOpen() {
		return nil, ErrRequestClosed
	}

	now := time.Now()
	expiry := now.AddDate(0, 0, models.MembershipTermDays)
	business := models.Business{
		BusinessID:           "bus_" + uuid.New().String(),
		IdpUserID:            signup.IdpUserID,
		MembershipStartDate:  &now,
		MembershipExpiryDate: &expiry,
	}
	ApplySnapshot(&business, signup.Payload)

	decision := models.DecisionApproved
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&business).Error; err != nil {
			return fmt.Errorf("failed to create business: %w", err)
		}

		signup.Status = models.RequestStatusClosed
		signup.Decision = &decision
		if err := tx.Save(&signup).Error; err != nil {
			return fmt.Errorf("failed to close signup request: %w", err)
		}

		if business.PointOfContact.Email != "" {
			job := models.EmailJob{
				JobID:        "job_" + uuid.New().String(),
				Template:     models.EmailTemplateSignupApproved,
				Recipient:    business.PointOfContact.Email,
				BusinessName: &business.BusinessName,
				Status:       models.EmailJobStatusPending,
				MaxRetries:   5,
			}
			if err := tx.Create(&job).Error; err != nil {
				return fmt.Errorf("failed to queue welcome email: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.addToMemberGroup(ctx, &business)

	slog.Info("Signup request approved", "signupID", signup.SignupID, "businessID", business.BusinessID)
	return &business, nil
}

// DenySignup removes the applicant's identity-provider account and closes
// the application. The account deletion happens first; if it fails the
// application stays open so the denial can be retried.
func (s *SignupService) DenySignup(ctx context.Context, signupID string, denialMessage *string) (*models.SignupRequest, error) {
	var signup models.SignupRequest
	if err := s.db.First(&signup, "signup_id = ?", signupID).Error; err != nil {
		return nil, err
	}
	if !signup.IsOpen() {
		return nil, ErrRequestClosed
	}

	if err := s.idpProvider.DeleteUser(ctx, signup.IdpUserID); err != nil {
		return nil, fmt.Errorf("failed to delete identity provider account: %w", err)
	}

	decision := models.DecisionDenied
	err := s.db.Transaction(func(tx *gorm.DB) error {
		signup.Status = models.RequestStatusClosed
		signup.Decision = &decision
		signup.DenialMessage = denialMessage
		if err := tx.Save(&signup).Error; err != nil {
			return fmt.Errorf("failed to close signup request: %w", err)
		}

		if email := signupContactEmail(&signup); email != "" {
			job := models.EmailJob{
				JobID:         "job_" + uuid.New().String(),
				Template:      models.EmailTemplateSignupDenied,
				Recipient:     email,
				BusinessName:  signup.Payload.BusinessName,
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

	slog.Info("Signup request denied", "signupID", signup.SignupID)
	return &signup, nil
}

// GetSignup retrieves a signup request by ID
func (s *SignupService) GetSignup(signupID string) (*models.SignupRequest, error) {
	var signup models.SignupRequest
	if err := s.db.First(&signup, "signup_id = ?", signupID).Error; err != nil {
		return nil, err
	}
	return &signup, nil
}

// GetSignups retrieves signup requests, filtered by owner and status if
// provided
func (s *SignupService) GetSignups(idpUserID, status *string) ([]models.SignupRequest, error) {
	var signups []models.SignupRequest
	query := s.db.Order("created_at DESC")
	if idpUserID != nil && *idpUserID != "" {
		query = query.Where("idp_user_id = ?", *idpUserID)
	}
	if status != nil && *status != "" {
		query = query.Where("status = ?", *status)
	}
	if err := query.Find(&signups).Error; err != nil {
		return nil, err
	}
	return signups, nil
}

// addToMemberGroup assigns the new member to the provider member group.
// Failures are logged; the membership record already exists and an admin can
// assign the group manually.
func (s *SignupService) addToMemberGroup(ctx context.Context, business *models.Business) {
	if s.memberGroupID == "" || s.idpProvider == nil {
		return
	}
	member := &idp.GroupMember{
		Value:   business.IdpUserID,
		Display: business.BusinessName,
	}
	if err := s.idpProvider.AddMemberToGroup(ctx, s.memberGroupID, member); err != nil {
		slog.Warn("Failed to add member to provider group",
			"businessID", business.BusinessID,
			"groupID", s.memberGroupID,
			"error", err)
	}
}

func signupContactEmail(signup *models.SignupRequest) string {
	if signup.Payload.PointOfContact != nil {
		return signup.Payload.PointOfContact.Email
	}
	return ""
}
