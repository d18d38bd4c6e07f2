package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hba-portal/membership-backend/v1/models"
	"gorm.io/gorm"
)

// BusinessService handles member business profile operations
type BusinessService struct {
	db *gorm.DB
}

// NewBusinessService creates a new business service
func NewBusinessService(db *gorm.DB) *BusinessService {
	return &BusinessService{db: db}
}

// GetBusiness retrieves a business by ID
func (s *BusinessService) GetBusiness(businessID string) (*models.Business, error) {
	var business models.Business
	if err := s.db.First(&business, "business_id = ?", businessID).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// GetBusinessByIdpUserID retrieves the business owned by an identity-provider
// user
func (s *BusinessService) GetBusinessByIdpUserID(idpUserID string) (*models.Business, error) {
	var business models.Business
	if err := s.db.First(&business, "idp_user_id = ?", idpUserID).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// GetBusinesses retrieves all businesses, filtered by business type if
// provided
func (s *BusinessService) GetBusinesses(businessType *string) ([]models.Business, error) {
	var businesses []models.Business
	query := s.db.Order("business_name ASC")
	if businessType != nil && *businessType != "" {
		query = query.Where("business_type = ?", *businessType)
	}
	if err := query.Find(&businesses).Error; err != nil {
		return nil, err
	}
	return businesses, nil
}

// UpdateBusiness applies the set fields of a patch to a business record.
// Profile edits from members go through the change-request flow; this direct
// update is the admin path.
func (s *BusinessService) UpdateBusiness(businessID string, req *models.UpdateBusinessRequest) (*models.Business, error) {
	var business models.Business
	if err := s.db.First(&business, "business_id = ?", businessID).Error; err != nil {
		return nil, err
	}

	ApplySnapshot(&business, req.BusinessSnapshot)
	if err := s.db.Save(&business).Error; err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}

	slog.Info("Business updated", "businessID", business.BusinessID)
	return &business, nil
}

// GetAnalyticsSummary aggregates membership statistics for the admin
// dashboard
func (s *BusinessService) GetAnalyticsSummary() (*models.AnalyticsSummary, error) {
	summary := &models.AnalyticsSummary{
		ByOrganizationType: make(map[string]int),
		ByBusinessType:     make(map[string]int),
	}

	var total int64
	if err := s.db.Model(&models.Business{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count businesses: %w", err)
	}
	summary.TotalBusinesses = int(total)

	byOrgType, err := s.countGrouped("organization_type")
	if err != nil {
		return nil, err
	}
	summary.ByOrganizationType = byOrgType

	byBusinessType, err := s.countGrouped("business_type")
	if err != nil {
		return nil, err
	}
	summary.ByBusinessType = byBusinessType

	now := time.Now()
	var active int64
	if err := s.db.Model(&models.Business{}).
		Where("membership_expiry_date > ?", now).
		Count(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active memberships: %w", err)
	}
	summary.ActiveMemberships = int(active)

	var expired int64
	if err := s.db.Model(&models.Business{}).
		Where("membership_expiry_date IS NOT NULL AND membership_expiry_date <= ?", now).
		Count(&expired).Error; err != nil {
		return nil, fmt.Errorf("failed to count expired memberships: %w", err)
	}
	summary.ExpiredMemberships = int(expired)

	var openRequests int64
	if err := s.db.Model(&models.ChangeRequest{}).
		Where("status = ?", models.RequestStatusOpen).
		Count(&openRequests).Error; err != nil {
		return nil, fmt.Errorf("failed to count open requests: %w", err)
	}
	summary.OpenRequests = int(openRequests)

	var openSignups int64
	if err := s.db.Model(&models.SignupRequest{}).
		Where("status = ?", models.RequestStatusOpen).
		Count(&openSignups).Error; err != nil {
		return nil, fmt.Errorf("failed to count open signups: %w", err)
	}
	summary.OpenSignups = int(openSignups)

	return summary, nil
}

func (s *BusinessService) countGrouped(column string) (map[string]int, error) {
	var rows []struct {
		Value string
		Count int
	}
	if err := s.db.Model(&models.Business{}).
		Select(column + " as value, count(*) as count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group businesses by %s: %w", column, err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}
