package services

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/models"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// EmailAttachment is a file to attach to an outgoing message. Name overrides
// the on-disk filename when set, so uploads keep their original names.
type EmailAttachment struct {
	Path string
	Name string
}

// EmailMessage is a single outgoing email
type EmailMessage struct {
	To          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []EmailAttachment
}

// Mailer delivers email messages
type Mailer interface {
	Send(msg *EmailMessage) error
}

// SMTPMailer delivers email over SMTP
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailerFromEnv creates an SMTP mailer from SMTP_HOST, SMTP_PORT,
// SMTP_USERNAME, SMTP_PASSWORD and SMTP_FROM_EMAIL
func NewSMTPMailerFromEnv() (*SMTPMailer, error) {
	host := utils.GetEnvOrDefault("SMTP_HOST", "")
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	port, err := strconv.Atoi(utils.GetEnvOrDefault("SMTP_PORT", "465"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	username := utils.GetEnvOrDefault("SMTP_USERNAME", "")
	password := utils.GetEnvOrDefault("SMTP_PASSWORD", "")
	from := utils.GetEnvOrDefault("SMTP_FROM_EMAIL", username)
	if from == "" {
		return nil, fmt.Errorf("SMTP_FROM_EMAIL is required")
	}

	dialer := gomail.NewDialer(host, port, username, password)
	// Port 465 speaks TLS from the first byte instead of STARTTLS
	dialer.SSL = port == 465

	return &SMTPMailer{dialer: dialer, from: from}, nil
}

// Send delivers one message
func (m *SMTPMailer) Send(msg *EmailMessage) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	if len(msg.To) > 0 {
		gm.SetHeader("To", msg.To...)
	} else {
		// Bcc-only sends still need a To header for picky servers
		gm.SetHeader("To", m.from)
	}
	if len(msg.Bcc) > 0 {
		gm.SetHeader("Bcc", msg.Bcc...)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	for _, att := range msg.Attachments {
		if att.Name != "" {
			gm.Attach(att.Path, gomail.Rename(att.Name))
		} else {
			gm.Attach(att.Path)
		}
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// EmailService handles bulk member emails and the sent-message log
type EmailService struct {
	db     *gorm.DB
	mailer Mailer
}

// NewEmailService creates a new email service
func NewEmailService(db *gorm.DB, mailer Mailer) *EmailService {
	return &EmailService{db: db, mailer: mailer}
}

// SendBulkEmail resolves the recipient filter to member contact addresses,
// delivers one message per address so recipients never see each other, and
// logs the send
func (s *EmailService) SendBulkEmail(subject, body string, recipient models.RecipientFilter, attachments []EmailAttachment) (*models.SentMessage, error) {
	recipients, err := s.resolveRecipients(recipient)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipient filter matched no addresses")
	}

	for _, addr := range recipients {
		msg := &EmailMessage{
			To:          []string{addr},
			Subject:     subject,
			Body:        body,
			Attachments: attachments,
		}
		if err := s.mailer.Send(msg); err != nil {
			return nil, fmt.Errorf("failed to send to %s: %w", addr, err)
		}
	}

	attachmentNames := make(models.StringList, 0, len(attachments))
	for _, att := range attachments {
		name := att.Name
		if name == "" {
			name = att.Path
		}
		attachmentNames = append(attachmentNames, name)
	}

	sent := models.SentMessage{
		MessageID:   "msg_" + uuid.New().String(),
		Subject:     subject,
		Body:        body,
		Attachments: attachmentNames,
		Recipient:   recipient,
	}
	if err := s.db.Create(&sent).Error; err != nil {
		// The mail already went out; the log row is the only casualty
		slog.Error("Failed to log sent message", "messageID", sent.MessageID, "error", err)
		return nil, fmt.Errorf("failed to log sent message: %w", err)
	}

	slog.Info("Bulk email sent", "messageID", sent.MessageID, "recipientCount", len(recipients))
	return &sent, nil
}

// LogMessage records a message in the sent log without delivering it
func (s *EmailService) LogMessage(req *models.LogMessageRequest) (*models.SentMessage, error) {
	sent := models.SentMessage{
		MessageID:   "msg_" + uuid.New().String(),
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: models.StringList(req.Attachments),
		Recipient:   req.Recipient,
	}
	if err := s.db.Create(&sent).Error; err != nil {
		return nil, fmt.Errorf("failed to log message: %w", err)
	}
	return &sent, nil
}

// GetMessages retrieves the sent-message log, newest first
func (s *EmailService) GetMessages() ([]models.SentMessage, error) {
	var messages []models.SentMessage
	if err := s.db.Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// resolveRecipients expands a recipient filter into a deduplicated address
// list: the explicit addresses plus the contact email of every business
// matching the business-type segment
func (s *EmailService) resolveRecipients(recipient models.RecipientFilter) ([]string, error) {
	seen := make(map[string]bool)
	var recipients []string

	add := func(email string) {
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		recipients = append(recipients, email)
	}

	for _, email := range recipient.DirectlyTo {
		add(email)
	}

	if recipient.BusinessType != "" {
		var businesses []models.Business
		if err := s.db.Where("business_type = ?", recipient.BusinessType).
			Find(&businesses).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve business type recipients: %w", err)
		}
		for i := range businesses {
			add(businesses[i].PointOfContact.Email)
		}
	}

	return recipients, nil
}

// renderEmailTemplate produces the subject and body for a queued notification
func renderEmailTemplate(job *models.EmailJob) (subject string, body string, err error) {
	businessName := "your business"
	if job.BusinessName != nil && *job.BusinessName != "" {
		businessName = *job.BusinessName
	}

	switch job.Template {
	case models.EmailTemplateBusinessApproved:
		subject = "Your business change request has been approved!"
		body = fmt.Sprintf("Hello,\n\nYour request to update information for \"%s\" has been approved and the changes are now live.\n\nThank you for keeping your business information up to date!\n\n- Hispanic Business Association Team", businessName)
	case models.EmailTemplateBusinessDenied:
		subject = "Your business change request was denied"
		body = fmt.Sprintf("Hello,\n\nUnfortunately, your request to update information for \"%s\" was denied.%s\n\nIf you have questions, please contact us.\n\n- Hispanic Business Association Team", businessName, denialReason(job))
	case models.EmailTemplateSignupApproved:
		subject = "Your business signup has been approved!"
		body = fmt.Sprintf("Congratulations!\n\nYour signup request for \"%s\" has been approved. You are now a member of the Hispanic Business Association.\n\nWelcome aboard!\n\n- Hispanic Business Association Team", businessName)
	case models.EmailTemplateSignupDenied:
		subject = "Your business signup was denied"
		body = fmt.Sprintf("Hello,\n\nUnfortunately, your signup request for \"%s\" was denied.%s\n\nIf you have questions or believe this was a mistake, please contact us.\n\n- Hispanic Business Association Team", businessName, denialReason(job))
	default:
		return "", "", fmt.Errorf("unknown email template: %s", job.Template)
	}

	return subject, body, nil
}

func denialReason(job *models.EmailJob) string {
	if job.DenialMessage == nil || *job.DenialMessage == "" {
		return ""
	}
	return fmt.Sprintf("\n\nReason: %s", *job.DenialMessage)
}
