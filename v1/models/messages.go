package models

// SentMessage is the append-only log of outbound bulk emails, shown in the
// admin automations history view
type SentMessage struct {
	MessageID   string          `gorm:"primarykey;column:message_id" json:"messageId"`
	Subject     string          `gorm:"column:subject;not null" json:"subject"`
	Body        string          `gorm:"column:body" json:"body"`
	Attachments StringList      `gorm:"column:attachments;type:jsonb" json:"attachments"`
	Recipient   RecipientFilter `gorm:"column:recipient;type:jsonb" json:"recipient"`
	BaseModel
}

// TableName sets the table name for GORM
func (SentMessage) TableName() string {
	return "sent_messages"
}
