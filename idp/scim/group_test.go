package scim

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hba-portal/membership-backend/idp"
)

func TestAddMemberToGroup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var captured patchOpRequestBody
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/scim2/Groups/group-123", r.URL.Path)
			assert.Equal(t, "application/scim+json", r.Header.Get("Content-Type"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.WriteHeader(http.StatusOK)
		})

		err := client.AddMemberToGroup(context.Background(), "group-123", &idp.GroupMember{
			Value:   "user-123",
			Display: "Maria Lopez",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{scimPatchOpSchema}, captured.Schemas)
		require.Len(t, captured.Operations, 1)
		assert.Equal(t, "add", captured.Operations[0].Op)
	})

	t.Run("AcceptsNoContent", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		err := client.AddMemberToGroup(context.Background(), "group-123", &idp.GroupMember{Value: "user-123"})
		assert.NoError(t, err)
	})

	t.Run("Failure", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "Group not found"}`, http.StatusNotFound)
		})

		err := client.AddMemberToGroup(context.Background(), "group-missing", &idp.GroupMember{Value: "user-123"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "add member to group")
		assert.Contains(t, err.Error(), "status code: 404")
	})
}

func TestRemoveMemberFromGroup(t *testing.T) {
	var captured patchOpRequestBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/scim2/Groups/group-123", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	})

	err := client.RemoveMemberFromGroup(context.Background(), "group-123", "user-123")
	require.NoError(t, err)

	require.Len(t, captured.Operations, 1)
	assert.Equal(t, "remove", captured.Operations[0].Op)
	assert.Equal(t, `members[value eq "user-123"]`, captured.Operations[0].Path)
}
