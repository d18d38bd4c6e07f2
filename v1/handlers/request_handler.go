package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/middleware"
	"github.com/hba-portal/membership-backend/v1/models"
	"github.com/hba-portal/membership-backend/v1/services"
	authutils "github.com/hba-portal/membership-backend/v1/utils"
)

// handleRequests handles change request routes
func (h *V1Handler) handleRequests(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/requests")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle collection endpoint: GET /api/v1/requests and POST /api/v1/requests
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			idpUserId := r.URL.Query().Get("idpUserId")
			status := r.URL.Query().Get("status")
			h.getAllRequests(w, r, &idpUserId, &status)
		case http.MethodPost:
			h.submitRequest(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Decision endpoints: POST /api/v1/requests/approve and /api/v1/requests/deny
	if len(parts) == 1 && (parts[0] == "approve" || parts[0] == "deny") {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if parts[0] == "approve" {
			h.approveRequest(w, r)
		} else {
			h.denyRequest(w, r)
		}
		return
	}

	// History endpoints: GET /api/v1/requests/history and /api/v1/requests/history/:historyId
	if parts[0] == "history" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		switch len(parts) {
		case 1:
			idpUserId := r.URL.Query().Get("idpUserId")
			h.getAllRequestHistories(w, r, &idpUserId)
		case 2:
			h.getRequestHistory(w, r, parts[1])
		default:
			utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		}
		return
	}

	if parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Request ID is required")
		return
	}
	requestId := parts[0]

	// Handle specific request endpoint: GET /api/v1/requests/:requestId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getRequest(w, r, requestId)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Diff endpoint: GET /api/v1/requests/:requestId/changes
	if len(parts) == 2 && parts[1] == "changes" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.getRequestChanges(w, r, requestId)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) getAllRequests(w http.ResponseWriter, r *http.Request, idpUserId, status *string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	var filteredIdpUserId *string
	if user.HasPermission(models.PermissionReadAllRequests) {
		// Admin/System can use provided filters or see all
		filteredIdpUserId = idpUserId
	} else if user.HasPermission(models.PermissionReadRequest) {
		// Regular users can only see their own requests
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

	requests, err := h.requestService.GetRequests(filteredIdpUserId, status)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := models.CollectionResponse{
		Items: requests,
		Count: len(requests),
	}
	utils.RespondWithSuccess(w, http.StatusOK, response)
}

func (h *V1Handler) submitRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionCreateRequest) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.requestService.SubmitRequest(user.IdpUserID, &req)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeRequests), nil, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeRequests), &request.RequestID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusCreated, request)
}

func (h *V1Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission - only admins decide requests
	if !user.HasPermission(models.PermissionDecideRequest) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RequestID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	business, err := h.requestService.ApproveRequest(r.Context(), req.RequestID)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeRequests), &req.RequestID, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeRequests), &req.RequestID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusOK, business)
}

func (h *V1Handler) denyRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission - only admins decide requests
	if !user.HasPermission(models.PermissionDecideRequest) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RequestID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Request ID is required")
		return
	}

	request, err := h.requestService.DenyRequest(req.RequestID, req.DenialMessage)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeRequests), &req.RequestID, string(models.AuditStatusFailure))

		respondWithServiceError(w, err)
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeRequests), &req.RequestID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusOK, request)
}

func (h *V1Handler) getRequest(w http.ResponseWriter, r *http.Request, requestId string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadRequest) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	request, err := h.requestService.GetRequest(requestId)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// Members can only read their own requests
	if !authutils.CanAccessResource(user, models.PermissionReadRequest, request.IdpUserID) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied to this resource")
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, request)
}

func (h *V1Handler) getRequestChanges(w http.ResponseWriter, r *http.Request, requestId string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadRequest) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	request, err := h.requestService.GetRequest(requestId)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// Members can only read their own requests
	if !authutils.CanAccessResource(user, models.PermissionReadRequest, request.IdpUserID) {
		utils.RespondWithError(w, http.StatusForbidden, "Access denied to this resource")
		return
	}

	changes := services.SnapshotChanges(request.Old, request.New)
	utils.RespondWithSuccess(w, http.StatusOK, changes)
}

func (h *V1Handler) getAllRequestHistories(w http.ResponseWriter, r *http.Request, idpUserId *string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadHistory) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	histories, err := h.requestService.GetRequestHistories(idpUserId)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := models.CollectionResponse{
		Items: histories,
		Count: len(histories),
	}
	utils.RespondWithSuccess(w, http.StatusOK, response)
}

func (h *V1Handler) getRequestHistory(w http.ResponseWriter, r *http.Request, historyId string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadHistory) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	history, err := h.requestService.GetRequestHistory(historyId)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	utils.RespondWithSuccess(w, http.StatusOK, history)
}
