package scim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hba-portal/membership-backend/idp"
)

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/scim2/Users/user-123", r.URL.Path)
			assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/scim+json")
			fmt.Fprint(w, `{
				"id": "user-123",
				"userName": "DEFAULT/maria@example.com",
				"name": {"givenName": "Maria", "familyName": "Lopez"},
				"emails": ["maria@example.com"],
				"phoneNumbers": [{"value": "+15551234567", "type": "mobile"}]
			}`)
		})

		user, err := client.GetUser(context.Background(), "user-123")
		require.NoError(t, err)

		assert.Equal(t, "user-123", user.Id)
		assert.Equal(t, "Maria", user.FirstName)
		assert.Equal(t, "Lopez", user.LastName)
		assert.Equal(t, "maria@example.com", user.Email)
		assert.Equal(t, "+15551234567", user.PhoneNumber)
	})

	t.Run("NotFound", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "User not found"}`, http.StatusNotFound)
		})

		_, err := client.GetUser(context.Background(), "user-missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code: 404")
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var captured CreateUserRequestBody
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/scim2/Users", r.URL.Path)
			assert.Equal(t, "application/scim+json", r.Header.Get("Content-Type"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			w.Header().Set("Content-Type", "application/scim+json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{
				"id": "user-456",
				"userName": "DEFAULT/carlos@example.com",
				"name": {"givenName": "Carlos", "familyName": "Ruiz"},
				"emails": ["carlos@example.com"]
			}`)
		})

		user, err := client.CreateUser(context.Background(), &idp.User{
			FirstName:   "Carlos",
			LastName:    "Ruiz",
			Email:       "carlos@example.com",
			PhoneNumber: "+15559876543",
		})
		require.NoError(t, err)

		assert.Equal(t, "user-456", user.Id)
		assert.Equal(t, "carlos@example.com", user.Email)

		assert.Equal(t, []string{scimUserSchema}, captured.Schemas)
		assert.Equal(t, "DEFAULT/carlos@example.com", captured.UserName)
		assert.Equal(t, []string{"carlos@example.com"}, captured.Emails)
		require.Len(t, captured.PhoneNumbers, 1)
		assert.Equal(t, "mobile", captured.PhoneNumbers[0].Type)
	})

	t.Run("OmitsEmptyPhoneNumber", func(t *testing.T) {
		var captured CreateUserRequestBody
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": "user-456", "emails": ["carlos@example.com"]}`)
		})

		_, err := client.CreateUser(context.Background(), &idp.User{
			FirstName: "Carlos",
			LastName:  "Ruiz",
			Email:     "carlos@example.com",
		})
		require.NoError(t, err)
		assert.Empty(t, captured.PhoneNumbers)
	})

	t.Run("Conflict", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "User already exists"}`, http.StatusConflict)
		})

		_, err := client.CreateUser(context.Background(), &idp.User{Email: "dup@example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code: 409")
	})
}

func TestUpdateUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/scim2/Users/user-123", r.URL.Path)

		w.Header().Set("Content-Type", "application/scim+json")
		fmt.Fprint(w, `{
			"id": "user-123",
			"name": {"givenName": "Maria", "familyName": "Lopez-Garcia"},
			"emails": ["maria@example.com"]
		}`)
	})

	user, err := client.UpdateUser(context.Background(), "user-123", &idp.User{
		FirstName: "Maria",
		LastName:  "Lopez-Garcia",
		Email:     "maria@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lopez-Garcia", user.LastName)
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/scim2/Users/user-123", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		err := client.DeleteUser(context.Background(), "user-123")
		assert.NoError(t, err)
	})

	t.Run("Failure", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "Internal error"}`, http.StatusInternalServerError)
		})

		err := client.DeleteUser(context.Background(), "user-123")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code: 500")
	})
}
