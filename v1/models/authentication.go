package models

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims represents the JWT claims issued by the identity provider
type UserClaims struct {
	Issuer    string              `json:"iss,omitempty"`
	IdpUserID string              `json:"sub,omitempty"`
	Audience  FlexibleStringSlice `json:"aud,omitempty"`
	ExpiresAt int64               `json:"exp,omitempty"`
	IssuedAt  int64               `json:"iat,omitempty"`
	NotBefore int64               `json:"nbf,omitempty"`
	Email     string              `json:"email,omitempty"`
	Username  string              `json:"username,omitempty"`
	OrgName   string              `json:"org_name,omitempty"`
	ClientID  string              `json:"client_id,omitempty"`
	Scope     string              `json:"scope,omitempty"`
	Roles     FlexibleStringSlice `json:"roles,omitempty"`
}

// GetExpirationTime implements jwt.Claims
func (c *UserClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

// GetIssuedAt implements jwt.Claims
func (c *UserClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssuedAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

// GetNotBefore implements jwt.Claims
func (c *UserClaims) GetNotBefore() (*jwt.NumericDate, error) {
	if c.NotBefore == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.NotBefore, 0)), nil
}

// GetIssuer implements jwt.Claims
func (c *UserClaims) GetIssuer() (string, error) {
	return c.Issuer, nil
}

// GetSubject implements jwt.Claims
func (c *UserClaims) GetSubject() (string, error) {
	return c.IdpUserID, nil
}

// GetAudience implements jwt.Claims
func (c *UserClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings(c.Audience), nil
}

// AuthenticatedUser represents a validated user extracted from a JWT.
// It carries the resolved roles/permissions plus a per-request cache of the
// user's business ID so handlers avoid repeated lookups.
type AuthenticatedUser struct {
	IdpUserID string    `json:"idpUserId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Roles     []Role    `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`

	// permissions is resolved from Roles at construction time
	permissions []Permission

	cacheMu           sync.Mutex
	cachedBusinessID  string
	businessIDCached  bool
	cachedBusinessErr error
}

// NewAuthenticatedUser builds an AuthenticatedUser from validated claims,
// resolving the permission set from the role claim
func NewAuthenticatedUser(claims *UserClaims) *AuthenticatedUser {
	user := &AuthenticatedUser{
		IdpUserID: claims.IdpUserID,
		Email:     claims.Email,
		Username:  claims.Username,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}

	seen := make(map[Permission]bool)
	for _, roleName := range claims.Roles {
		role := Role(roleName)
		if !role.IsValid() {
			continue
		}
		user.Roles = append(user.Roles, role)
		for _, p := range RolePermissions[role] {
			if !seen[p] {
				seen[p] = true
				user.permissions = append(user.permissions, p)
			}
		}
	}

	return user
}

// HasRole checks if the user has a specific role
func (u *AuthenticatedUser) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the user has any of the given roles
func (u *AuthenticatedUser) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// HasPermission checks if the user has a specific permission
func (u *AuthenticatedUser) HasPermission(permission Permission) bool {
	for _, p := range u.permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetPermissions returns a copy of the user's resolved permissions
func (u *AuthenticatedUser) GetPermissions() []Permission {
	perms := make([]Permission, len(u.permissions))
	copy(perms, u.permissions)
	return perms
}

// IsAdmin checks if the user has the admin role
func (u *AuthenticatedUser) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// IsMember checks if the user has the member role
func (u *AuthenticatedUser) IsMember() bool {
	return u.HasRole(RoleMember)
}

// IsSystem checks if the user has the system role
func (u *AuthenticatedUser) IsSystem() bool {
	return u.HasRole(RoleSystem)
}

// GetPrimaryRole returns the highest-privilege role the user holds
func (u *AuthenticatedUser) GetPrimaryRole() Role {
	if u.IsAdmin() {
		return RoleAdmin
	}
	if u.IsMember() {
		return RoleMember
	}
	if u.IsSystem() {
		return RoleSystem
	}
	if len(u.Roles) > 0 {
		return u.Roles[0]
	}
	return ""
}

// IsTokenExpired reports whether the token backing this user has expired
func (u *AuthenticatedUser) IsTokenExpired() bool {
	return time.Now().After(u.ExpiresAt)
}

// GetCachedBusinessID returns the cached business ID lookup result
func (u *AuthenticatedUser) GetCachedBusinessID() (string, bool) {
	u.cacheMu.Lock()
	defer u.cacheMu.Unlock()
	return u.cachedBusinessID, u.businessIDCached
}

// GetCachedBusinessIDError returns the error of a cached failed lookup
func (u *AuthenticatedUser) GetCachedBusinessIDError() error {
	u.cacheMu.Lock()
	defer u.cacheMu.Unlock()
	return u.cachedBusinessErr
}

// GetCachedBusinessIDWithError returns the cached lookup result and error together
func (u *AuthenticatedUser) GetCachedBusinessIDWithError() (string, bool, error) {
	u.cacheMu.Lock()
	defer u.cacheMu.Unlock()
	return u.cachedBusinessID, u.businessIDCached, u.cachedBusinessErr
}

// SetCachedBusinessID caches the result of a business ID lookup, including
// a failed lookup so it is not retried within the same request
func (u *AuthenticatedUser) SetCachedBusinessID(businessID string, err error) {
	u.cacheMu.Lock()
	defer u.cacheMu.Unlock()
	u.cachedBusinessID = businessID
	u.businessIDCached = true
	u.cachedBusinessErr = err
}

// AuthContext carries token-level metadata alongside the authenticated user
type AuthContext struct {
	Token     string
	ClientID  string
	OrgName   string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
