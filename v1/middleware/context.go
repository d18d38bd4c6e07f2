package middleware

import (
	"net/http"

	"github.com/hba-portal/membership-backend/v1/models"
	authutils "github.com/hba-portal/membership-backend/v1/utils"
)

// GetUserFromRequest retrieves the authenticated user stored in the request
// context by the JWT middleware
func GetUserFromRequest(r *http.Request) (*models.AuthenticatedUser, error) {
	return authutils.GetAuthenticatedUser(r.Context())
}
