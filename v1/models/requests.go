package models

import "time"

// ChangeRequest represents a pending or closed profile change proposal for
// one business. At most one open request exists per business; submitting
// again merges into the existing open row.
type ChangeRequest struct {
	RequestID     string           `gorm:"primarykey;column:request_id" json:"requestId"`
	IdpUserID     string           `gorm:"column:idp_user_id;not null;index" json:"idpUserId"`
	Old           BusinessSnapshot `gorm:"column:old;type:jsonb" json:"old"`
	New           BusinessSnapshot `gorm:"column:new;type:jsonb" json:"new"`
	Status        RequestStatus    `gorm:"column:status;not null;default:open" json:"status"`
	Decision      *Decision        `gorm:"column:decision" json:"decision,omitempty"`
	DenialMessage *string          `gorm:"column:denial_message" json:"denialMessage,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (ChangeRequest) TableName() string {
	return "change_requests"
}

// IsOpen reports whether the request is still pending a decision
func (r *ChangeRequest) IsOpen() bool {
	return r.Status == RequestStatusOpen
}

// RequestHistory is the immutable archive copy of a resolved change request.
// Rows expire RequestHistoryTTLDays after creation; the worker sweep removes
// them once ExpiresAt has passed.
type RequestHistory struct {
	HistoryID     string           `gorm:"primarykey;column:history_id" json:"historyId"`
	RequestID     string           `gorm:"column:request_id;index" json:"requestId"`
	IdpUserID     string           `gorm:"column:idp_user_id;index" json:"idpUserId"`
	Old           BusinessSnapshot `gorm:"column:old;type:jsonb" json:"old"`
	New           BusinessSnapshot `gorm:"column:new;type:jsonb" json:"new"`
	Decision      Decision         `gorm:"column:decision;not null" json:"decision"`
	DenialMessage *string          `gorm:"column:denial_message" json:"denialMessage,omitempty"`
	ExpiresAt     time.Time        `gorm:"column:expires_at;not null;index" json:"expiresAt"`
	BaseModel
}

// TableName sets the table name for GORM
func (RequestHistory) TableName() string {
	return "request_history"
}
