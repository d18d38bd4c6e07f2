package idp

import "context"

// ProviderType identifies a supported identity provider implementation
type ProviderType string

const (
	// ProviderSCIM is a SCIM2-compatible identity provider management API
	ProviderSCIM ProviderType = "scim"
)

// User is the provider-agnostic representation of an identity account
type User struct {
	Id          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// GroupMember identifies a user inside a provider group
type GroupMember struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// UserManager manages user accounts at the identity provider
type UserManager interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	UpdateUser(ctx context.Context, userID string, user *User) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// GroupManager manages group membership at the identity provider
type GroupManager interface {
	AddMemberToGroup(ctx context.Context, groupID string, member *GroupMember) error
	RemoveMemberFromGroup(ctx context.Context, groupID string, memberID string) error
}

// IdentityProviderAPI is the full management surface the backend needs
// from an identity provider
type IdentityProviderAPI interface {
	UserManager
	GroupManager
}
