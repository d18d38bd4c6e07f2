package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hba-portal/membership-backend/v1/models"
	"github.com/hba-portal/membership-backend/v1/services"
	authutils "github.com/hba-portal/membership-backend/v1/utils"
)

// capturingMailer records outgoing messages for assertions
type capturingMailer struct {
	sent     []*services.EmailMessage
	contents []string
}

func (m *capturingMailer) Send(msg *services.EmailMessage) error {
	// Attachment temp files are removed after the handler returns, so read
	// them now the way a real mailer would
	for _, att := range msg.Attachments {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			return err
		}
		m.contents = append(m.contents, string(data))
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newAdminUser(idpUserID string) *models.AuthenticatedUser {
	return models.NewAuthenticatedUser(&models.UserClaims{
		IdpUserID: idpUserID,
		Email:     idpUserID + "@example.com",
		Roles:     models.FlexibleStringSlice{models.RoleAdmin.String()},
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
}

func authenticatedRequest(method, target string, body io.Reader, user *models.AuthenticatedUser) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(authutils.SetAuthenticatedUser(req.Context(), user))
}

func TestSendBulkEmail_MultipartToAddressesAndAttachment(t *testing.T) {
	db := services.SetupSQLiteTestDB(t)
	mailer := &capturingMailer{}
	handler := &V1Handler{emailService: services.NewEmailService(db, mailer)}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("subject", "Member Update"))
	require.NoError(t, form.WriteField("body", "Hello members"))
	require.NoError(t, form.WriteField("toAddresses", `["one@example.com", "two@example.com"]`))

	part, err := form.CreateFormFile("attachment", "flyer.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := authenticatedRequest(http.MethodPost, "/api/v1/send-email", &buf, newAdminUser("admin-1"))
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.handleSendEmail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// One message per address, each carrying the uploaded attachment
	require.Len(t, mailer.sent, 2)
	var addressed []string
	for _, msg := range mailer.sent {
		require.Len(t, msg.To, 1)
		addressed = append(addressed, msg.To[0])
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "flyer.pdf", msg.Attachments[0].Name)
	}
	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, addressed)
	assert.Equal(t, []string{"pdf bytes", "pdf bytes"}, mailer.contents)

	// The send is logged with the resolved recipients
	var stored models.SentMessage
	require.NoError(t, db.First(&stored, "subject = ?", "Member Update").Error)
	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, stored.Recipient.DirectlyTo)
	assert.Equal(t, models.StringList{"flyer.pdf"}, stored.Attachments)
}

func TestSendBulkEmail_RecipientFilterFieldStillAccepted(t *testing.T) {
	db := services.SetupSQLiteTestDB(t)
	mailer := &capturingMailer{}
	handler := &V1Handler{emailService: services.NewEmailService(db, mailer)}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("subject", "Member Update"))
	require.NoError(t, form.WriteField("body", "Hello members"))
	require.NoError(t, form.WriteField("recipient", `{"directlyTo": ["legacy@example.com"]}`))
	require.NoError(t, form.Close())

	req := authenticatedRequest(http.MethodPost, "/api/v1/send-email", &buf, newAdminUser("admin-1"))
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.handleSendEmail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"legacy@example.com"}, mailer.sent[0].To)
}

func TestSendBulkEmail_MissingRecipients(t *testing.T) {
	db := services.SetupSQLiteTestDB(t)
	handler := &V1Handler{emailService: services.NewEmailService(db, &capturingMailer{})}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("subject", "Member Update"))
	require.NoError(t, form.WriteField("body", "Hello members"))
	require.NoError(t, form.Close())

	req := authenticatedRequest(http.MethodPost, "/api/v1/send-email", &buf, newAdminUser("admin-1"))
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.handleSendEmail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
