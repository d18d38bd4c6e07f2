package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hba-portal/membership-backend/v1/models"
)

func createBusinessWithContact(t *testing.T, db *gorm.DB, businessType, email string) {
	business := &models.Business{
		BusinessID:   "bus_" + uuid.New().String(),
		IdpUserID:    "user-" + uuid.New().String(),
		BusinessName: "Business " + uuid.New().String(),
		BusinessType: businessType,
		PointOfContact: models.PointOfContact{
			Name:  "Contact",
			Email: email,
		},
	}
	require.NoError(t, db.Create(business).Error)
}

func TestSendBulkEmail_ResolvesBusinessTypeSegment(t *testing.T) {
	db := RequireTestDB(t)
	createBusinessWithContact(t, db, "Restaurant", "one@example.com")
	createBusinessWithContact(t, db, "Restaurant", "two@example.com")
	createBusinessWithContact(t, db, "Retail", "three@example.com")

	mailer := &mockMailer{}
	service := NewEmailService(db, mailer)

	sent, err := service.SendBulkEmail("Monthly Newsletter", "Hello members", models.RecipientFilter{
		BusinessType: "Restaurant",
	}, nil)
	require.NoError(t, err)

	// One message per recipient so addresses stay private
	require.Len(t, mailer.sent, 2)
	var addressed []string
	for _, msg := range mailer.sent {
		require.Len(t, msg.To, 1)
		addressed = append(addressed, msg.To[0])
		assert.Equal(t, "Monthly Newsletter", msg.Subject)
	}
	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, addressed)

	// The send is logged
	assert.Contains(t, sent.MessageID, "msg_")
	var stored models.SentMessage
	require.NoError(t, db.First(&stored, "message_id = ?", sent.MessageID).Error)
	assert.Equal(t, "Monthly Newsletter", stored.Subject)
	assert.Equal(t, "Restaurant", stored.Recipient.BusinessType)
}

func TestSendBulkEmail_DeduplicatesRecipients(t *testing.T) {
	db := RequireTestDB(t)
	createBusinessWithContact(t, db, "Restaurant", "shared@example.com")

	mailer := &mockMailer{}
	service := NewEmailService(db, mailer)

	_, err := service.SendBulkEmail("Subject", "Body", models.RecipientFilter{
		DirectlyTo:   []string{"shared@example.com", "extra@example.com", "extra@example.com"},
		BusinessType: "Restaurant",
	}, nil)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 2)
	var addressed []string
	for _, msg := range mailer.sent {
		require.Len(t, msg.To, 1)
		addressed = append(addressed, msg.To[0])
	}
	assert.ElementsMatch(t, []string{"shared@example.com", "extra@example.com"}, addressed)
}

func TestSendBulkEmail_NoRecipients(t *testing.T) {
	db := RequireTestDB(t)
	mailer := &mockMailer{}
	service := NewEmailService(db, mailer)

	_, err := service.SendBulkEmail("Subject", "Body", models.RecipientFilter{
		BusinessType: "Nonexistent",
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched no addresses")
	assert.Empty(t, mailer.sent)
}

func TestSendBulkEmail_MailerFailureIsNotLogged(t *testing.T) {
	db := RequireTestDB(t)
	mailer := &mockMailer{
		sendFunc: func(msg *EmailMessage) error {
			return errors.New("smtp unavailable")
		},
	}
	service := NewEmailService(db, mailer)

	_, err := service.SendBulkEmail("Subject", "Body", models.RecipientFilter{
		DirectlyTo: []string{"someone@example.com"},
	}, nil)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.SentMessage{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSendBulkEmail_RecordsAttachmentNames(t *testing.T) {
	db := RequireTestDB(t)
	mailer := &mockMailer{}
	service := NewEmailService(db, mailer)

	sent, err := service.SendBulkEmail("Subject", "Body", models.RecipientFilter{
		DirectlyTo: []string{"someone@example.com"},
	}, []EmailAttachment{
		{Path: "/tmp/attachment-123", Name: "flyer.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StringList{"flyer.pdf"}, sent.Attachments)
	require.Len(t, mailer.sent, 1)
	require.Len(t, mailer.sent[0].Attachments, 1)
	assert.Equal(t, "flyer.pdf", mailer.sent[0].Attachments[0].Name)
}

func TestLogMessage(t *testing.T) {
	db := RequireTestDB(t)
	service := NewEmailService(db, &mockMailer{})

	sent, err := service.LogMessage(&models.LogMessageRequest{
		Subject:     "External Campaign",
		Body:        "Sent from an external tool",
		Attachments: []string{"report.csv"},
		Recipient:   models.RecipientFilter{DirectlyTo: []string{"someone@example.com"}},
	})
	require.NoError(t, err)
	assert.Contains(t, sent.MessageID, "msg_")

	var stored models.SentMessage
	require.NoError(t, db.First(&stored, "message_id = ?", sent.MessageID).Error)
	assert.Equal(t, "External Campaign", stored.Subject)
	assert.Equal(t, models.StringList{"report.csv"}, stored.Attachments)
}

func TestGetMessages_NewestFirst(t *testing.T) {
	db := RequireTestDB(t)
	service := NewEmailService(db, &mockMailer{})

	for _, subject := range []string{"First", "Second"} {
		_, err := service.LogMessage(&models.LogMessageRequest{Subject: subject})
		require.NoError(t, err)
	}

	messages, err := service.GetMessages()
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestRenderEmailTemplate(t *testing.T) {
	t.Run("business approved", func(t *testing.T) {
		subject, body, err := renderEmailTemplate(&models.EmailJob{
			Template:     models.EmailTemplateBusinessApproved,
			BusinessName: stringPtr("Tortilla Works"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Your business change request has been approved!", subject)
		assert.Contains(t, body, `"Tortilla Works"`)
		assert.Contains(t, body, "changes are now live")
	})

	t.Run("business denied includes the reason", func(t *testing.T) {
		subject, body, err := renderEmailTemplate(&models.EmailJob{
			Template:      models.EmailTemplateBusinessDenied,
			BusinessName:  stringPtr("Tortilla Works"),
			DenialMessage: stringPtr("logo image is unreadable"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Your business change request was denied", subject)
		assert.Contains(t, body, "Reason: logo image is unreadable")
	})

	t.Run("signup approved", func(t *testing.T) {
		subject, body, err := renderEmailTemplate(&models.EmailJob{
			Template:     models.EmailTemplateSignupApproved,
			BusinessName: stringPtr("Tortilla Works"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Your business signup has been approved!", subject)
		assert.Contains(t, body, "Congratulations!")
		assert.Contains(t, body, "Welcome aboard!")
	})

	t.Run("signup denied without a reason", func(t *testing.T) {
		subject, body, err := renderEmailTemplate(&models.EmailJob{
			Template:     models.EmailTemplateSignupDenied,
			BusinessName: stringPtr("Tortilla Works"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Your business signup was denied", subject)
		assert.NotContains(t, body, "Reason:")
	})

	t.Run("missing business name uses a generic phrase", func(t *testing.T) {
		_, body, err := renderEmailTemplate(&models.EmailJob{
			Template: models.EmailTemplateBusinessApproved,
		})
		require.NoError(t, err)
		assert.Contains(t, body, "your business")
	})

	t.Run("unknown template errors", func(t *testing.T) {
		_, _, err := renderEmailTemplate(&models.EmailJob{Template: "nonexistent"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown email template")
	})
}
