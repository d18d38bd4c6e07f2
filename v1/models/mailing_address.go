package models

// MailingAddressSingletonID is the fixed primary key of the one admin
// mailing address row
const MailingAddressSingletonID = "admin"

// MailingAddress is the association's own mailing address, stored as a
// single well-known row
type MailingAddress struct {
	ID      string  `gorm:"primarykey;column:id" json:"id"`
	Address Address `gorm:"column:address;type:jsonb" json:"address"`
	BaseModel
}

// TableName sets the table name for GORM
func (MailingAddress) TableName() string {
	return "admin_mailing_address"
}
