package models

// AuthorizationMode defines how the system behaves when no explicit permission is defined for an endpoint
type AuthorizationMode string

const (
	// AuthorizationModeFailClosed - Deny all access to undefined endpoints (most secure)
	AuthorizationModeFailClosed AuthorizationMode = "fail_closed"

	// AuthorizationModeFailOpenAdminSystem - Allow admin and system users, deny others
	AuthorizationModeFailOpenAdminSystem AuthorizationMode = "fail_open_admin_system"

	// AuthorizationModeFailOpenAdmin - Allow only admin users, deny others
	AuthorizationModeFailOpenAdmin AuthorizationMode = "fail_open_admin"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin  Role = "HBA_Admin"  // Full access to all resources
	RoleMember Role = "HBA_Member" // Access to own business and member endpoints
	RoleSystem Role = "HBA_System" // System-level access for internal services
)

// Permission represents specific permissions
type Permission string

const (
	// Business permissions
	PermissionReadBusiness      Permission = "business:read"
	PermissionUpdateBusiness    Permission = "business:update"
	PermissionReadAllBusinesses Permission = "business:read:all"

	// Change request permissions
	PermissionCreateRequest   Permission = "request:create"
	PermissionReadRequest     Permission = "request:read"
	PermissionReadAllRequests Permission = "request:read:all"
	PermissionDecideRequest   Permission = "request:decide"

	// Request history permissions
	PermissionReadHistory Permission = "request_history:read"

	// Signup request permissions
	PermissionCreateSignup   Permission = "signup:create"
	PermissionReadSignup     Permission = "signup:read"
	PermissionReadAllSignups Permission = "signup:read:all"
	PermissionDecideSignup   Permission = "signup:decide"

	// Message permissions
	PermissionSendMessage  Permission = "message:send"
	PermissionReadMessages Permission = "message:read"

	// Mailing address permissions
	PermissionReadMailingAddress   Permission = "mailing_address:read"
	PermissionUpdateMailingAddress Permission = "mailing_address:update"

	// Upload permissions
	PermissionCreateUpload Permission = "upload:create"
	PermissionReadUploads  Permission = "upload:read"

	// Payment permissions
	PermissionCreatePayment Permission = "payment:create"

	// Analytics permissions
	PermissionReadAnalytics Permission = "analytics:read"
)

// RolePermissions defines what permissions each role has
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		// Admin has all permissions
		PermissionReadBusiness, PermissionUpdateBusiness, PermissionReadAllBusinesses,
		PermissionCreateRequest, PermissionReadRequest, PermissionReadAllRequests, PermissionDecideRequest,
		PermissionReadHistory,
		PermissionCreateSignup, PermissionReadSignup, PermissionReadAllSignups, PermissionDecideSignup,
		PermissionSendMessage, PermissionReadMessages,
		PermissionReadMailingAddress, PermissionUpdateMailingAddress,
		PermissionCreateUpload, PermissionReadUploads,
		PermissionCreatePayment,
		PermissionReadAnalytics,
	},
	RoleMember: {
		// Members manage their own business, requests, signups, and payments
		PermissionReadBusiness, PermissionUpdateBusiness,
		PermissionCreateRequest, PermissionReadRequest,
		PermissionCreateSignup, PermissionReadSignup,
		PermissionReadMailingAddress,
		PermissionCreateUpload,
		PermissionCreatePayment,
	},
	RoleSystem: {
		// System role has broad read access for internal services
		PermissionReadBusiness, PermissionReadAllBusinesses,
		PermissionReadRequest, PermissionReadAllRequests, PermissionReadHistory,
		PermissionReadSignup, PermissionReadAllSignups,
		PermissionReadMessages,
		PermissionReadMailingAddress,
		PermissionReadAnalytics,
	},
}

// EndpointPermission defines the required permission for each endpoint
type EndpointPermission struct {
	Method              string
	Path                string
	Permission          Permission
	IsOwnershipRequired bool // Whether the user must own the resource
}

// EndpointPermissions maps HTTP endpoints to required permissions.
// Exact paths take precedence over wildcard patterns; wildcard patterns are
// matched in order, so more specific patterns come first.
var EndpointPermissions = []EndpointPermission{
	// Change request endpoints
	{"GET", "/api/v1/requests", PermissionReadRequest, false},
	{"POST", "/api/v1/requests", PermissionCreateRequest, false},
	{"POST", "/api/v1/requests/approve", PermissionDecideRequest, false},
	{"POST", "/api/v1/requests/deny", PermissionDecideRequest, false},
	{"GET", "/api/v1/requests/history", PermissionReadHistory, false},
	{"GET", "/api/v1/requests/history/*", PermissionReadHistory, false},
	{"GET", "/api/v1/requests/*", PermissionReadRequest, true},

	// Signup request endpoints
	{"GET", "/api/v1/signups", PermissionReadSignup, false},
	{"POST", "/api/v1/signups", PermissionCreateSignup, false},
	{"POST", "/api/v1/signups/approve", PermissionDecideSignup, false},
	{"POST", "/api/v1/signups/deny", PermissionDecideSignup, false},
	{"GET", "/api/v1/signups/*", PermissionReadSignup, true},

	// Bulk email endpoints
	{"POST", "/api/v1/send-email", PermissionSendMessage, false},
	{"POST", "/api/v1/send-email/history", PermissionSendMessage, false},
	{"GET", "/api/v1/send-email/history", PermissionReadMessages, false},

	// Business endpoints
	{"GET", "/api/v1/businesses", PermissionReadBusiness, false},
	{"GET", "/api/v1/businesses/*", PermissionReadBusiness, true},
	{"PATCH", "/api/v1/businesses/*", PermissionUpdateBusiness, true},

	// Mailing address endpoints
	{"GET", "/api/v1/mailing-address", PermissionReadMailingAddress, false},
	{"PATCH", "/api/v1/mailing-address", PermissionUpdateMailingAddress, false},

	// Upload endpoints
	{"POST", "/api/v1/uploads/presign", PermissionCreateUpload, false},
	{"GET", "/api/v1/uploads", PermissionReadUploads, false},

	// Payment endpoints (webhook delivery is registered outside the
	// authenticated chain and is not listed here)
	{"POST", "/api/v1/payments", PermissionCreatePayment, false},

	// Analytics endpoints
	{"GET", "/api/v1/analytics/summary", PermissionReadAnalytics, false},
}

// HasPermission checks if a role has a specific permission
func (r Role) HasPermission(permission Permission) bool {
	permissions, exists := RolePermissions[r]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	_, exists := RolePermissions[r]
	return exists
}
