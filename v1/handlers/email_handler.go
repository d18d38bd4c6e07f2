package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/middleware"
	"github.com/hba-portal/membership-backend/v1/models"
	"github.com/hba-portal/membership-backend/v1/services"
)

// maxBulkEmailMemory bounds the in-memory portion of multipart parsing;
// larger attachments spill to disk
const maxBulkEmailMemory = 32 << 20

// handleSendEmail handles bulk email routes
func (h *V1Handler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/send-email")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle send endpoint: POST /api/v1/send-email
	if len(parts) == 1 && parts[0] == "" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.sendBulkEmail(w, r)
		return
	}

	// Handle log endpoints: GET and POST /api/v1/send-email/history
	if len(parts) == 1 && parts[0] == "history" {
		switch r.Method {
		case http.MethodGet:
			h.getMessages(w, r)
		case http.MethodPost:
			h.logMessage(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) sendBulkEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission - only admins send bulk email
	if !user.HasPermission(models.PermissionSendMessage) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	if err := r.ParseMultipartForm(maxBulkEmailMemory); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	subject := r.FormValue("subject")
	body := r.FormValue("body")
	if subject == "" || body == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Subject and body are required")
		return
	}

	var recipient models.RecipientFilter
	if recipientJSON := r.FormValue("recipient"); recipientJSON != "" {
		if err := json.Unmarshal([]byte(recipientJSON), &recipient); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipient filter")
			return
		}
	}
	// toAddresses is a JSON array of explicit addresses
	if toJSON := r.FormValue("toAddresses"); toJSON != "" {
		var addresses []string
		if err := json.Unmarshal([]byte(toJSON), &addresses); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid toAddresses field")
			return
		}
		recipient.DirectlyTo = append(recipient.DirectlyTo, addresses...)
	}
	if len(recipient.DirectlyTo) == 0 && recipient.BusinessType == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Recipient filter is required")
		return
	}

	attachments, cleanup, err := saveAttachments(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	sent, err := h.emailService.SendBulkEmail(subject, body, recipient, attachments)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeMessages), nil, string(models.AuditStatusFailure))

		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeMessages), &sent.MessageID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusOK, sent)
}

func (h *V1Handler) logMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionSendMessage) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.LogMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Subject == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Subject is required")
		return
	}

	sent, err := h.emailService.LogMessage(&req)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeMessages), nil, string(models.AuditStatusFailure))

		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeMessages), &sent.MessageID, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusCreated, sent)
}

func (h *V1Handler) getMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadMessages) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	messages, err := h.emailService.GetMessages()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := models.CollectionResponse{
		Items: messages,
		Count: len(messages),
	}
	utils.RespondWithSuccess(w, http.StatusOK, response)
}

// saveAttachments writes uploaded attachment parts to temp files so the
// mailer can stream them. The returned cleanup removes the temp files.
func saveAttachments(r *http.Request) ([]services.EmailAttachment, func(), error) {
	var attachments []services.EmailAttachment
	var paths []string

	cleanup := func() {
		for _, p := range paths {
			if err := os.Remove(p); err != nil {
				slog.Warn("Failed to remove temp attachment", "path", p, "error", err)
			}
		}
	}

	if r.MultipartForm == nil {
		return nil, cleanup, nil
	}

	// Attachment parts arrive under either field name
	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["attachment"]...)
	headers = append(headers, r.MultipartForm.File["attachments"]...)

	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}

		tmp, err := os.CreateTemp("", "attachment-*")
		if err != nil {
			src.Close()
			cleanup()
			return nil, func() {}, err
		}
		paths = append(paths, tmp.Name())

		_, err = io.Copy(tmp, src)
		src.Close()
		tmp.Close()
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}

		attachments = append(attachments, services.EmailAttachment{
			Path: tmp.Name(),
			Name: filepath.Base(header.Filename),
		})
	}

	return attachments, cleanup, nil
}

// handleUploads handles object storage routes
func (h *V1Handler) handleUploads(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/uploads")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Handle list endpoint: GET /api/v1/uploads
	if len(parts) == 1 && parts[0] == "" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.listUploads(w, r)
		return
	}

	// Handle presign endpoint: POST /api/v1/uploads/presign
	if len(parts) == 1 && parts[0] == "presign" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.presignUpload(w, r)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) presignUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionCreateUpload) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req models.PresignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "File name is required")
		return
	}

	presigned, err := h.storageService.PresignUpload(r.Context(), req.FileName, req.ContentType)
	if err != nil {
		// Log audit event for failure
		middleware.LogAuditEvent(r, string(models.ResourceTypeUploads), nil, string(models.AuditStatusFailure))

		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Log audit event
	middleware.LogAuditEvent(r, string(models.ResourceTypeUploads), &presigned.Key, string(models.AuditStatusSuccess))

	utils.RespondWithSuccess(w, http.StatusOK, presigned)
}

func (h *V1Handler) listUploads(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Check permission
	if !user.HasPermission(models.PermissionReadUploads) {
		utils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	urls, err := h.storageService.ListImages(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := models.CollectionResponse{
		Items: urls,
		Count: len(urls),
	}
	utils.RespondWithSuccess(w, http.StatusOK, response)
}
