package models

import "time"

// Business represents a member organization's canonical profile record.
// It is keyed internally by BusinessID; IdpUserID links it to the owner's
// identity-provider account.
type Business struct {
	BusinessID         string             `gorm:"primarykey;column:business_id" json:"businessId"`
	IdpUserID          string             `gorm:"column:idp_user_id;not null;unique" json:"idpUserId"`
	BusinessName       string             `gorm:"column:business_name;not null;unique" json:"businessName"`
	BusinessOwner      string             `gorm:"column:business_owner" json:"businessOwner"`
	OrganizationType   string             `gorm:"column:organization_type" json:"organizationType"`
	BusinessType       string             `gorm:"column:business_type" json:"businessType"`
	BusinessScale      string             `gorm:"column:business_scale" json:"businessScale"`
	NumberOfEmployees  int                `gorm:"column:number_of_employees" json:"numberOfEmployees"`
	Gender             string             `gorm:"column:gender" json:"gender"`
	Website            string             `gorm:"column:website" json:"website"`
	Description        string             `gorm:"column:description" json:"description"`
	PhysicalAddress    Address            `gorm:"column:physical_address;type:jsonb" json:"physicalAddress"`
	MailingAddress     Address            `gorm:"column:mailing_address;type:jsonb" json:"mailingAddress"`
	PointOfContact     PointOfContact     `gorm:"column:point_of_contact;type:jsonb" json:"pointOfContact"`
	SocialMediaHandles SocialMediaHandles `gorm:"column:social_media_handles;type:jsonb" json:"socialMediaHandles"`
	LogoUrl            string             `gorm:"column:logo_url" json:"logoUrl"`
	BannerUrl          string             `gorm:"column:banner_url" json:"bannerUrl"`

	MembershipStartDate  *time.Time `gorm:"column:membership_start_date" json:"membershipStartDate,omitempty"`
	MembershipExpiryDate *time.Time `gorm:"column:membership_expiry_date" json:"membershipExpiryDate,omitempty"`
	LastPayDate          *time.Time `gorm:"column:last_pay_date" json:"lastPayDate,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Business) TableName() string {
	return "businesses"
}

// Snapshot captures the business-core fields into a full snapshot
func (b *Business) Snapshot() BusinessSnapshot {
	physical := b.PhysicalAddress
	mailing := b.MailingAddress
	poc := b.PointOfContact
	socials := b.SocialMediaHandles
	return BusinessSnapshot{
		BusinessName:       &b.BusinessName,
		BusinessOwner:      &b.BusinessOwner,
		OrganizationType:   &b.OrganizationType,
		BusinessType:       &b.BusinessType,
		BusinessScale:      &b.BusinessScale,
		NumberOfEmployees:  &b.NumberOfEmployees,
		Gender:             &b.Gender,
		Website:            &b.Website,
		Description:        &b.Description,
		PhysicalAddress:    &physical,
		MailingAddress:     &mailing,
		PointOfContact:     &poc,
		SocialMediaHandles: &socials,
		LogoUrl:            &b.LogoUrl,
		BannerUrl:          &b.BannerUrl,
	}
}
