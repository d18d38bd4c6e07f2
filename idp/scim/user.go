package scim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hba-portal/membership-backend/idp"
)

// scimPhoneNumber is the SCIM representation of a phone number entry
type scimPhoneNumber struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// scimName is the SCIM representation of a person's name
type scimName struct {
	FamilyName string `json:"familyName"`
	GivenName  string `json:"givenName"`
}

// GetUserResponseBody is the SCIM2 user read payload
type GetUserResponseBody struct {
	ID           string            `json:"id"`
	UserName     string            `json:"userName"`
	Name         scimName          `json:"name"`
	Email        []string          `json:"emails"`
	PhoneNumbers []scimPhoneNumber `json:"phoneNumbers"`
}

// CreateUserRequestBody is the SCIM2 user create/replace payload
type CreateUserRequestBody struct {
	Schemas      []string          `json:"schemas"`
	UserName     string            `json:"userName"`
	Name         scimName          `json:"name"`
	Emails       []string          `json:"emails"`
	PhoneNumbers []scimPhoneNumber `json:"phoneNumbers,omitempty"`
}

// CreateUserResponseBody is the SCIM2 user create/replace response payload
type CreateUserResponseBody struct {
	ID           string            `json:"id"`
	UserName     string            `json:"userName"`
	Name         scimName          `json:"name"`
	Emails       []string          `json:"emails"`
	PhoneNumbers []scimPhoneNumber `json:"phoneNumbers"`
}

const scimUserSchema = "urn:ietf:params:scim:schemas:core:2.0:User"

// GetUser fetches a user by provider ID
func (c *Client) GetUser(ctx context.Context, userID string) (*idp.User, error) {
	url := fmt.Sprintf("%s/scim2/Users/%s", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get user, status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var userResp GetUserResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	user := &idp.User{
		Id:        userResp.ID,
		FirstName: userResp.Name.GivenName,
		LastName:  userResp.Name.FamilyName,
	}
	if len(userResp.Email) > 0 {
		user.Email = userResp.Email[0]
	}
	if len(userResp.PhoneNumbers) > 0 {
		user.PhoneNumber = userResp.PhoneNumbers[0].Value
	}

	return user, nil
}

// CreateUser provisions a new user account
func (c *Client) CreateUser(ctx context.Context, userInfo *idp.User) (*idp.User, error) {
	reqBody := CreateUserRequestBody{
		Schemas:  []string{scimUserSchema},
		UserName: "DEFAULT/" + userInfo.Email,
		Name: scimName{
			GivenName:  userInfo.FirstName,
			FamilyName: userInfo.LastName,
		},
		Emails: []string{userInfo.Email},
	}
	if userInfo.PhoneNumber != "" {
		reqBody.PhoneNumbers = []scimPhoneNumber{{Value: userInfo.PhoneNumber, Type: "mobile"}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	url := fmt.Sprintf("%s/scim2/Users", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/scim+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create user, status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var userResp CreateUserResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	return createResponseToUser(&userResp), nil
}

// UpdateUser replaces a user's profile attributes
func (c *Client) UpdateUser(ctx context.Context, userID string, userInfo *idp.User) (*idp.User, error) {
	reqBody := CreateUserRequestBody{
		Schemas:  []string{scimUserSchema},
		UserName: "DEFAULT/" + userInfo.Email,
		Name: scimName{
			GivenName:  userInfo.FirstName,
			FamilyName: userInfo.LastName,
		},
		Emails: []string{userInfo.Email},
	}
	if userInfo.PhoneNumber != "" {
		reqBody.PhoneNumbers = []scimPhoneNumber{{Value: userInfo.PhoneNumber, Type: "mobile"}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	url := fmt.Sprintf("%s/scim2/Users/%s", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/scim+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to update user, status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var userResp CreateUserResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	return createResponseToUser(&userResp), nil
}

// DeleteUser removes a user account. Callers that must fail closed treat
// any error here as fatal.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	url := fmt.Sprintf("%s/scim2/Users/%s", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete user, status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func createResponseToUser(resp *CreateUserResponseBody) *idp.User {
	user := &idp.User{
		Id:        resp.ID,
		FirstName: resp.Name.GivenName,
		LastName:  resp.Name.FamilyName,
	}
	if len(resp.Emails) > 0 {
		user.Email = resp.Emails[0]
	}
	if len(resp.PhoneNumbers) > 0 {
		user.PhoneNumber = resp.PhoneNumbers[0].Value
	}
	return user
}
