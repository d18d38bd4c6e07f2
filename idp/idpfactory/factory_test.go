package idpfactory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hba-portal/membership-backend/idp"
)

func TestNewIdpAPIProvider(t *testing.T) {
	t.Run("SCIMProvider", func(t *testing.T) {
		cfg := &FactoryConfig{
			ProviderType: idp.ProviderSCIM,
			BaseURL:      "https://idp.example.com/t/testorg",
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			Scopes:       []string{"internal_user_mgt_create", "internal_user_mgt_delete"},
		}

		provider, err := NewIdpAPIProvider(cfg)

		assert.NoError(t, err)
		assert.NotNil(t, provider)
	})

	t.Run("NilConfig", func(t *testing.T) {
		provider, err := NewIdpAPIProvider(nil)

		assert.Error(t, err)
		assert.Nil(t, provider)
	})

	t.Run("MissingBaseURL", func(t *testing.T) {
		cfg := &FactoryConfig{
			ProviderType: idp.ProviderSCIM,
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
		}

		provider, err := NewIdpAPIProvider(cfg)

		assert.Error(t, err)
		assert.Nil(t, provider)
		assert.Contains(t, err.Error(), "base URL is required")
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		cfg := &FactoryConfig{
			ProviderType: idp.ProviderSCIM,
			BaseURL:      "https://idp.example.com/t/testorg",
		}

		provider, err := NewIdpAPIProvider(cfg)

		assert.Error(t, err)
		assert.Nil(t, provider)
		assert.Contains(t, err.Error(), "client credentials are required")
	})

	t.Run("UnsupportedProvider", func(t *testing.T) {
		cfg := &FactoryConfig{
			ProviderType: idp.ProviderType("unsupported"),
			BaseURL:      "https://idp.example.com",
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
		}

		provider, err := NewIdpAPIProvider(cfg)

		assert.Error(t, err)
		assert.Nil(t, provider)
		assert.Contains(t, err.Error(), "unsupported provider type")
	})
}
