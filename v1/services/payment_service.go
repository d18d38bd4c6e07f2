package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/models"
)

// PaymentConfig holds the payment provider settings
type PaymentConfig struct {
	BaseURL         string
	AccessToken     string
	LocationID      string
	SignatureKey    string
	NotificationURL string
}

// NewPaymentConfigFromEnv loads the payment provider settings from the
// environment
func NewPaymentConfigFromEnv() *PaymentConfig {
	return &PaymentConfig{
		BaseURL:         utils.GetEnvOrDefault("PAYMENT_API_BASE_URL", "https://connect.squareup.com"),
		AccessToken:     utils.GetEnvOrDefault("PAYMENT_ACCESS_TOKEN", ""),
		LocationID:      utils.GetEnvOrDefault("PAYMENT_LOCATION_ID", ""),
		SignatureKey:    utils.GetEnvOrDefault("PAYMENT_WEBHOOK_SIGNATURE_KEY", ""),
		NotificationURL: utils.GetEnvOrDefault("PAYMENT_WEBHOOK_NOTIFICATION_URL", ""),
	}
}

// PaymentService creates hosted payment links and applies completed-payment
// webhooks to membership terms
type PaymentService struct {
	db         *gorm.DB
	config     *PaymentConfig
	httpClient *http.Client
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, config *PaymentConfig) *PaymentService {
	return &PaymentService{
		db:         db,
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// paymentLinkRequest is the provider payload for a hosted checkout link. The
// payment note carries the paying user's identity-provider ID so the webhook
// can attribute the payment.
type paymentLinkRequest struct {
	IdempotencyKey string   `json:"idempotency_key"`
	QuickPay       quickPay `json:"quick_pay"`
	PaymentNote    string   `json:"payment_note"`
}

type quickPay struct {
	Name       string     `json:"name"`
	PriceMoney priceMoney `json:"price_money"`
	LocationID string     `json:"location_id"`
}

type priceMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type paymentLinkResponse struct {
	PaymentLink struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"payment_link"`
}

// webhookEvent is the subset of the provider webhook payload the backend
// reads
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Payment struct {
				Status string `json:"status"`
				Note   string `json:"note"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// CreatePaymentLink creates a hosted checkout link for a membership payment
// attributed to the given business
func (s *PaymentService) CreatePaymentLink(ctx context.Context, businessID string, req *models.CreatePaymentLinkRequest) (*models.PaymentLinkResponse, error) {
	if s.config.AccessToken == "" {
		return nil, fmt.Errorf("payment provider is not configured")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	var business models.Business
	if err := s.db.First(&business, "business_id = ?", businessID).Error; err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = "HBA Membership Dues"
	}

	body, err := json.Marshal(paymentLinkRequest{
		IdempotencyKey: uuid.New().String(),
		QuickPay: quickPay{
			Name:       title,
			PriceMoney: priceMoney{Amount: req.Amount, Currency: "USD"},
			LocationID: s.config.LocationID,
		},
		PaymentNote: business.IdpUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment link request: %w", err)
	}

	url := s.config.BaseURL + "/v2/online-checkout/payment-links"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.AccessToken)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create payment link, status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var linkResp paymentLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&linkResp); err != nil {
		return nil, fmt.Errorf("failed to decode payment link response: %w", err)
	}

	slog.Info("Payment link created", "businessID", business.BusinessID, "paymentLinkID", linkResp.PaymentLink.ID)
	return &models.PaymentLinkResponse{
		PaymentLinkID: linkResp.PaymentLink.ID,
		URL:           linkResp.PaymentLink.URL,
	}, nil
}

// VerifyWebhookSignature checks the provider's HMAC signature over the
// notification URL concatenated with the raw request body
func (s *PaymentService) VerifyWebhookSignature(signature string, body []byte) bool {
	if s.config.SignatureKey == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.config.SignatureKey))
	mac.Write([]byte(s.config.NotificationURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhookEvent applies a verified webhook payload. Completed payments
// extend the membership by one term from the later of now and the current
// expiry date; incomplete payments are ignored. Event types other than
// payment.updated return ErrInvalidWebhookEvent.
func (s *PaymentService) HandleWebhookEvent(body []byte) error {
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if event.Type != "payment.updated" {
		return fmt.Errorf("%w: %s", ErrInvalidWebhookEvent, event.Type)
	}
	if event.Data.Object.Payment.Status != "COMPLETED" {
		slog.Debug("Ignoring incomplete payment", "status", event.Data.Object.Payment.Status)
		return nil
	}

	idpUserID := event.Data.Object.Payment.Note
	if idpUserID == "" {
		return fmt.Errorf("completed payment has no business attribution")
	}

	var business models.Business
	if err := s.db.First(&business, "idp_user_id = ?", idpUserID).Error; err != nil {
		return fmt.Errorf("failed to find business for payment by user %s: %w", idpUserID, err)
	}

	now := time.Now()
	base := now
	if business.MembershipExpiryDate != nil && business.MembershipExpiryDate.After(now) {
		base = *business.MembershipExpiryDate
	}
	newExpiry := base.AddDate(0, 0, models.MembershipTermDays)

	business.MembershipExpiryDate = &newExpiry
	business.LastPayDate = &now
	if business.MembershipStartDate == nil {
		business.MembershipStartDate = &now
	}

	if err := s.db.Save(&business).Error; err != nil {
		return fmt.Errorf("failed to extend membership: %w", err)
	}

	slog.Info("Membership extended from payment",
		"businessID", business.BusinessID,
		"newExpiry", newExpiry.Format(time.RFC3339))
	return nil
}
