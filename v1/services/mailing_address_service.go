package services

import (
	"fmt"
	"log/slog"

	"github.com/hba-portal/membership-backend/v1/models"
	"gorm.io/gorm"
)

// MailingAddressService manages the single administrative mailing address
// record
type MailingAddressService struct {
	db *gorm.DB
}

// NewMailingAddressService creates a new mailing address service
func NewMailingAddressService(db *gorm.DB) *MailingAddressService {
	return &MailingAddressService{db: db}
}

// GetMailingAddress retrieves the mailing address, creating an empty record
// on first read so the row always exists
func (s *MailingAddressService) GetMailingAddress() (*models.MailingAddress, error) {
	address := models.MailingAddress{ID: models.MailingAddressSingletonID}
	if err := s.db.Where("id = ?", models.MailingAddressSingletonID).
		FirstOrCreate(&address).Error; err != nil {
		return nil, fmt.Errorf("failed to load mailing address: %w", err)
	}
	return &address, nil
}

// UpdateMailingAddress replaces the mailing address
func (s *MailingAddressService) UpdateMailingAddress(req *models.UpdateMailingAddressRequest) (*models.MailingAddress, error) {
	address, err := s.GetMailingAddress()
	if err != nil {
		return nil, err
	}

	address.Address = req.Address
	if err := s.db.Save(address).Error; err != nil {
		return nil, fmt.Errorf("failed to update mailing address: %w", err)
	}

	slog.Info("Mailing address updated")
	return address, nil
}
