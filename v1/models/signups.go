package models

// SignupRequest represents a pending new-member application. Payload holds
// the full business-core field set supplied at signup; on approval it seeds
// the new Business record.
type SignupRequest struct {
	SignupID      string           `gorm:"primarykey;column:signup_id" json:"signupId"`
	IdpUserID     string           `gorm:"column:idp_user_id;not null;index" json:"idpUserId"`
	Payload       BusinessSnapshot `gorm:"column:payload;type:jsonb" json:"payload"`
	Status        RequestStatus    `gorm:"column:status;not null;default:open" json:"status"`
	Decision      *Decision        `gorm:"column:decision" json:"decision,omitempty"`
	DenialMessage *string          `gorm:"column:denial_message" json:"denialMessage,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (SignupRequest) TableName() string {
	return "signup_requests"
}

// IsOpen reports whether the signup is still pending a decision
func (s *SignupRequest) IsOpen() bool {
	return s.Status == RequestStatusOpen
}
