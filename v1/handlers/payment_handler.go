package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/middleware"
	"github.com/hba-portal/membership-backend/v1/models"
	"github.com/hba-portal/membership-backend/v1/services"
)

// webhookSignatureHeader carries the provider's HMAC signature over the
// notification URL plus the raw body
const webhookSignatureHeader = "X-Square-HmacSha256-Signature"

// handlePayments handles POST /api/v1/payments
func (h *V1Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.createPaymentLink(w, r)
}

func (h *V1Handler) createPaymentLink(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionCreatePayment) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.CreatePaymentLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Admins can create a payment link for any business; members pay for
	// their own
	businessID := r.URL.Query().Get("businessId")
	if businessID == "" || !user.IsAdmin() {
		ownBusinessID, err := h.getUserBusinessID(r, user)
		if err != nil {
			utils.RespondWithError(w, http.StatusForbidden, "User business record not found")
			return
		}
		businessID = ownBusinessID
	}

	link, err := h.paymentService.CreatePaymentLink(r.Context(), businessID, &req)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypePayments), &businessID, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypePayments), &link.PaymentLinkID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusCreated, link)
}

// handlePaymentWebhook handles POST /api/v1/payments/webhooks. The route is
// registered outside the JWT middleware chain; the HMAC signature is the only
// authentication.
func (h *V1Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := r.Header.Get(webhookSignatureHeader)
	if !h.paymentService.VerifyWebhookSignature(signature, body) {
		slog.Warn("Rejected payment webhook with invalid signature")
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	if err := h.paymentService.HandleWebhookEvent(body); err != nil {
		if errors.Is(err, services.ErrInvalidWebhookEvent) {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid event type")
			return
		}
		slog.Error("Failed to process payment webhook", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process webhook event")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
