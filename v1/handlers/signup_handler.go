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

// handleSignups handles signup request routes
func (h *V1Handler) handleSignups(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/signups")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/signups and POST /api/v1/signups
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			idpUserId := r.URL.Query().Get("idpUserId")
			status := r.URL.Query().Get("status")
			h.getAllSignups(w, r, &idpUserId, &status)
		case http.MethodPost:
			h.submitSignup(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Decision endpoints: POST /api/v1/signups/approve and /api/v1/signups/deny
	if len(parts) == 1 && (parts[0] == "approve" || parts[0] == "deny") {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if parts[0] == "approve" {
			h.approveSignup(w, r)
		} else {
			h.denySignup(w, r)
		}
		return
	}

	if parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Signup ID is required")
		return
	}
	signupId := parts[0]

	// Handle specific signup endpoint: GET /api/v1/signups/:signupId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getSignup(w, r, signupId)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllSignups(w http.ResponseWriter, r *http.Request, idpUserId, status *string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	var filteredIdpUserId *string
	if user.HasPermission(models.PermissionReadAllSignups) {
		// Admin/System can use provided filters or see all
		filteredIdpUserId = idpUserId
	} else if user.HasPermission(models.PermissionReadSignup) {
		// Regular users can only see their own signup request
		filteredIdpUserId = &user.IdpUserID
	} else {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	if status != nil && *status != "" &&
		*status != string(models.RequestStatusOpen) && *status != string(models.RequestStatusClosed) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	signups, err := h.signupService.GetSignups(filteredIdpUserId, status)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := models.CollectionResponse{
		Items: signups,
		Count: len(signups),
	}
	utils.RespondWithSuccess(w, http.StatusOK, response)
}

func (h *V1Handler) submitSignup(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionCreateSignup) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.SubmitSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	signup, err := h.signupService.SubmitSignup(user.IdpUserID, &req)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeSignups), nil, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeSignups), &signup.SignupID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusCreated, signup)
}

func (h *V1Handler) approveSignup(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission - only admins decide signups
	if !user.HasPermission(models.PermissionDecideSignup) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RequestID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Signup ID is required")
		return
	}

	business, err := h.signupService.ApproveSignup(r.Context(), req.RequestID)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeSignups), &req.RequestID, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeSignups), &req.RequestID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusCreated, business)
}

func (h *V1Handler) denySignup(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission - only admins decide signups
	if !user.HasPermission(models.PermissionDecideSignup) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RequestID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Signup ID is required")
		return
	}

	signup, err := h.signupService.DenySignup(r.Context(), req.RequestID, req.DenialMessage)
	if err != nil {
		// Log audit event for failure. The identity-provider account is
		// deleted before the request closes, so a failure here leaves the
		// request open for retry.
		middleware.LogAuditEvent(r, string(models.ResourceTypeSignups), &req.RequestID, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeSignups), &req.RequestID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusOK, signup)
}

func (h *V1Handler) getSignup(w http.ResponseWriter, r *http.Request, signupId string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadSignup) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	signup, err := h.signupService.GetSignup(signupId)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// Applicants can only read their own signup request
	if !authutils.CanAccessResource(user, models.PermissionReadSignup, signup.IdpUserID) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied to this resource")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, signup)
}
