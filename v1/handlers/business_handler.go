package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/middleware"
	"github.com/hba-portal/membership-backend/v1/models"
	authutils "github.com/hba-portal/membership-backend/v1/utils"
)

// handleBusinesses handles business directory routes
func (h *V1Handler) handleBusinesses(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/businesses")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/businesses
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			businessType := r.URL.Query().Get("businessType")
			h.getAllBusinesses(w, r, &businessType)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Business ID is required")
		return
	}

	// Alias endpoint: GET /api/v1/businesses/me resolves to the caller's
	// own business
	if len(parts) == 1 && parts[0] == "me" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.getOwnBusiness(w, r)
		return
	}

	businessId := parts[0]

	// Handle specific business endpoint: GET and PATCH /api/v1/businesses/:businessId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getBusiness(w, r, businessId)
		case http.MethodPatch:
			h.updateBusiness(w, r, businessId)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllBusinesses(w http.ResponseWriter, r *http.Request, businessType *string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// The member directory is readable by every authenticated member
	if !user.HasPermission(models.PermissionReadBusiness) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	businesses, err := h.businessService.GetBusinesses(businessType)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := models.CollectionResponse{
		Items: businesses,
		Count: len(businesses),
	}
	utils.RespondWithSuccess(w, http.StatusOK, response)
}

func (h *V1Handler) getOwnBusiness(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if !user.HasPermission(models.PermissionReadBusiness) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	business, err := h.businessService.GetBusinessByIdpUserID(user.IdpUserID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, business)
}

func (h *V1Handler) getBusiness(w http.ResponseWriter, r *http.Request, businessId string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadBusiness) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	business, err := h.businessService.GetBusiness(businessId)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, business)
}

func (h *V1Handler) updateBusiness(w http.ResponseWriter, r *http.Request, businessId string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionUpdateBusiness) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	// Get the existing business to check ownership. Member profile edits go
	// through the change-request flow; this direct update is for admins and
	// the owner's membership-agnostic fields.
	existingBusiness, err := h.businessService.GetBusiness(businessId)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if !authutils.IsOwnerOrAdmin(user, existingBusiness.IdpUserID) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied to update this resource")
		return
	}

	var req models.UpdateBusinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	business, err := h.businessService.UpdateBusiness(businessId, &req)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeBusinesses), &existingBusiness.BusinessID, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeBusinesses), &business.BusinessID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusOK, business)
}

// handleAnalyticsSummary handles GET /api/v1/analytics/summary
func (h *V1Handler) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadAnalytics) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	summary, err := h.businessService.GetAnalyticsSummary()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, summary)
}

// handleMailingAddress handles the admin mailing address singleton
func (h *V1Handler) handleMailingAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !user.HasPermission(models.PermissionReadMailingAddress) {
			utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		address, err := h.mailingAddressService.GetMailingAddress()
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.RespondWithSuccess(w, http.StatusOK, address)

	case http.MethodPatch:
		if !user.HasPermission(models.PermissionUpdateMailingAddress) {
			utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		var req models.UpdateMailingAddressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		address, err := h.mailingAddressService.UpdateMailingAddress(&req)
		if err != nil {
			// Log audit event for failure
			middleware.LogAuditEvent(r, string(models.ResourceTypeMailingAddress), nil, string(models.AuditStatusFailure))

			utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Log audit event
		middleware.LogAuditEvent(r, string(models.ResourceTypeMailingAddress), &address.ID, string(models.AuditStatusSuccess))

		utils.RespondWithSuccess(w, http.StatusOK, address)

	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
