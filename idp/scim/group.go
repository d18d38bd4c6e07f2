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

const scimPatchOpSchema = "urn:ietf:params:scim:api:messages:2.0:PatchOp"

// patchOpRequestBody is the SCIM2 PatchOp payload for group membership changes
type patchOpRequestBody struct {
	Schemas    []string         `json:"schemas"`
	Operations []patchOperation `json:"Operations"`
}

type patchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

type groupMemberValue struct {
	Members []idp.GroupMember `json:"members"`
}

// AddMemberToGroup adds a user to a provider group
func (c *Client) AddMemberToGroup(ctx context.Context, groupID string, member *idp.GroupMember) error {
	reqBody := patchOpRequestBody{
		Schemas: []string{scimPatchOpSchema},
		Operations: []patchOperation{
			{
				Op:    "add",
				Value: groupMemberValue{Members: []idp.GroupMember{*member}},
			},
		},
	}

	return c.patchGroup(ctx, groupID, reqBody, "add member to group")
}

// RemoveMemberFromGroup removes a user from a provider group
func (c *Client) RemoveMemberFromGroup(ctx context.Context, groupID string, memberID string) error {
	reqBody := patchOpRequestBody{
		Schemas: []string{scimPatchOpSchema},
		Operations: []patchOperation{
			{
				Op:   "remove",
				Path: fmt.Sprintf("members[value eq %q]", memberID),
			},
		},
	}

	return c.patchGroup(ctx, groupID, reqBody, "remove member from group")
}

func (c *Client) patchGroup(ctx context.Context, groupID string, reqBody patchOpRequestBody, action string) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal group patch: %w", err)
	}

	url := fmt.Sprintf("%s/scim2/Groups/%s", c.BaseURL, groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/scim+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to %s, status code: %d, body: %s", action, resp.StatusCode, string(respBody))
	}

	return nil
}
