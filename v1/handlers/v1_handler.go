package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hba-portal/membership-backend/idp"
	"github.com/hba-portal/membership-backend/idp/idpfactory"
	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/models"
	"github.com/hba-portal/membership-backend/v1/services"
	authutils "github.com/hba-portal/membership-backend/v1/utils"

	"gorm.io/gorm"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	businessService       *services.BusinessService
	requestService        *services.RequestService
	signupService         *services.SignupService
	emailService          *services.EmailService
	mailingAddressService *services.MailingAddressService
	storageService        *services.StorageService
	paymentService        *services.PaymentService
}

// NewV1Handler creates a new V1 handler. The mailer is shared with the
// background email worker, so the caller constructs it.
func NewV1Handler(db *gorm.DB, mailer services.Mailer) (*V1Handler, error) {
	baseURL := os.Getenv("IDP_BASE_URL")
	clientID := os.Getenv("IDP_CLIENT_ID")
	clientSecret := os.Getenv("IDP_CLIENT_SECRET")
	if baseURL == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("failed to create IDP provider: missing required environment variables (IDP_BASE_URL, IDP_CLIENT_ID, IDP_CLIENT_SECRET)")
	}

	var scopes []string
	if scopesEnv := os.Getenv("IDP_SCOPES"); scopesEnv != "" {
		scopes = strings.Fields(scopesEnv)
	}

	idpProvider, err := idpfactory.NewIdpAPIProvider(&idpfactory.FactoryConfig{
		ProviderType: idp.ProviderSCIM,
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create IDP provider: %w", err)
	}

	storageService, err := services.NewStorageServiceFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	memberGroupID := os.Getenv("IDP_MEMBER_GROUP_ID")

	return &V1Handler{
		businessService:       services.NewBusinessService(db),
		requestService:        services.NewRequestService(db, storageService),
		signupService:         services.NewSignupService(db, idpProvider, memberGroupID),
		emailService:          services.NewEmailService(db, mailer),
		mailingAddressService: services.NewMailingAddressService(db),
		storageService:        storageService,
		paymentService:        services.NewPaymentService(db, services.NewPaymentConfigFromEnv()),
	}, nil
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	// Change request routes
	mux.Handle("/api/v1/requests", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleRequests)))
	mux.Handle("/api/v1/requests/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleRequests)))

	// Signup request routes
	mux.Handle("/api/v1/signups", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleSignups)))
	mux.Handle("/api/v1/signups/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleSignups)))

	// Business routes
	mux.Handle("/api/v1/businesses", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleBusinesses)))
	mux.Handle("/api/v1/businesses/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleBusinesses)))

	// Bulk email routes
	mux.Handle("/api/v1/send-email", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleSendEmail)))
	mux.Handle("/api/v1/send-email/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleSendEmail)))

	// Mailing address routes
	mux.Handle("/api/v1/mailing-address", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMailingAddress)))

	// Upload routes
	mux.Handle("/api/v1/uploads", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleUploads)))
	mux.Handle("/api/v1/uploads/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleUploads)))

	// Payment routes (the webhook endpoint is registered separately in main
	// so it bypasses JWT authentication)
	mux.Handle("/api/v1/payments", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handlePayments)))

	// Analytics routes
	mux.Handle("/api/v1/analytics/summary", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAnalyticsSummary)))
}

// HandlePaymentWebhook is exported for registration outside the
// authenticated middleware chain
func (h *V1Handler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	h.handlePaymentWebhook(w, r)
}

// getUserBusinessID gets the business ID for the authenticated user with caching
// This avoids repeated database calls for the same user within the same request context
func (h *V1Handler) getUserBusinessID(r *http.Request, user *models.AuthenticatedUser) (string, error) {
	// Check if we already have cached the business ID
	if businessID, cached := user.GetCachedBusinessID(); cached {
		// Return cached error if the previous lookup failed
		if err := user.GetCachedBusinessIDError(); err != nil {
			return "", err
		}
		return businessID, nil
	}

	// Not cached, perform the database lookup
	business, err := h.businessService.GetBusinessByIdpUserID(user.IdpUserID)
	if err != nil {
		user.SetCachedBusinessID("", err)
		return "", err
	}

	// Cache the successful result
	user.SetCachedBusinessID(business.BusinessID, nil)
	return business.BusinessID, nil
}

// respondWithServiceError maps service errors onto HTTP status codes
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, services.ErrRequestClosed):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		utils.RespondWithError(w, http.StatusForbidden, "Access denied to this resource")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireUser extracts the authenticated user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (*models.AuthenticatedUser, bool) {
	user, err := authutils.RequireAuthentication(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}
