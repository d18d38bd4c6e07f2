package models

// UserGroup represents different user groups in the identity provider
type UserGroup string

const (
	UserGroupAdmin  UserGroup = "HBA_Admin"
	UserGroupMember UserGroup = "HBA_Members"
)

// RequestStatus represents the lifecycle state of a change or signup request
type RequestStatus string

const (
	RequestStatusOpen   RequestStatus = "open"
	RequestStatusClosed RequestStatus = "closed"
)

// Decision represents the terminal decision on a closed request
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)

// OrganizationType classifies a member organization
type OrganizationType string

const (
	OrganizationTypeBusiness  OrganizationType = "Business"
	OrganizationTypeNonprofit OrganizationType = "Nonprofit"
	OrganizationTypeCommunity OrganizationType = "Community"
)

// AuditStatus represents the status of audit events
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// ResourceType represents different resource types for auditing
type ResourceType string

const (
	ResourceTypeBusinesses     ResourceType = "BUSINESSES"
	ResourceTypeRequests       ResourceType = "REQUESTS"
	ResourceTypeSignups        ResourceType = "SIGNUP-REQUESTS"
	ResourceTypeMessages       ResourceType = "MESSAGES"
	ResourceTypeMailingAddress ResourceType = "MAILING-ADDRESS"
	ResourceTypePayments       ResourceType = "PAYMENTS"
	ResourceTypeUploads        ResourceType = "UPLOADS"
)

// Field length constraints remain as regular constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
	MaxEmailLength       = 320 // RFC 3696 specification
	MaxPhoneLength       = 15  // E.164 format
)

// RequestHistoryTTL is how long an archived request stays queryable
// before the expiry sweep removes it
const RequestHistoryTTLDays = 30

// MembershipTermDays is the length of one paid membership term
const MembershipTermDays = 365

// Default placeholder images are never queued for object-storage deletion
const (
	DefaultLogoMarker   = "Default_Logo"
	DefaultBannerMarker = "Default_Banner"
)
