package middleware

import (
	"log/slog"
	"net/http"
	"time"

	authutils "github.com/hba-portal/membership-backend/v1/utils"
)

// AuditLogger emits structured audit events for write operations
type AuditLogger struct {
	logger *slog.Logger
}

// globalAuditLogger backs the package-level LogAuditEvent helper used
// directly by handlers
var globalAuditLogger *AuditLogger

// NewAuditLogger creates an audit logger and installs it as the global
// instance for LogAuditEvent calls
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	a := &AuditLogger{logger: logger}
	globalAuditLogger = a
	return a
}

// LogAudit logs an audit event for a write operation, extracting the actor
// from the request context
func (a *AuditLogger) LogAudit(r *http.Request, resource string, resourceID *string, status string) {
	if !isWriteOperation(r.Method) {
		return
	}

	eventAction := determineEventAction(r.Method)
	if eventAction == "" {
		return
	}

	actorID, actorRole := extractActorInfoFromRequest(r)
	if actorID == "" {
		// Actor is a required field; unauthenticated writes are not auditable
		slog.Warn("Cannot log audit event: no actor found", "path", r.URL.Path)
		return
	}

	id := ""
	if resourceID != nil {
		id = *resourceID
	}

	clientID := ""
	if authCtx, err := authutils.GetAuthContext(r.Context()); err == nil {
		clientID = authCtx.ClientID
	}

	a.logger.Info("audit",
		"timestamp", time.Now().UTC().Format(time.RFC3339),
		"action", eventAction,
		"status", status,
		"resource", resource,
		"resourceId", id,
		"actorId", actorID,
		"actorRole", actorRole,
		"clientId", clientID,
		"clientIp", authutils.GetRequestIP(r),
	)
}

// extractActorInfoFromRequest extracts actor information from the request
func extractActorInfoFromRequest(r *http.Request) (actorID string, actorRole string) {
	user, err := GetUserFromRequest(r)
	if err != nil || user == nil {
		return "", ""
	}
	return user.IdpUserID, user.GetPrimaryRole().String()
}

// LogAuditEvent - global function for easy access from handlers
func LogAuditEvent(r *http.Request, resource string, resourceID *string, status string) {
	if globalAuditLogger == nil {
		slog.Warn("Audit logging skipped: audit logger is not initialized")
		return
	}
	globalAuditLogger.LogAudit(r, resource, resourceID, status)
}

// Helper functions
func isWriteOperation(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

func determineEventAction(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return ""
	}
}
